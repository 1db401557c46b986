package config

import "time"

type Config struct {
	Web     Web
	Cors    Cors
	Storage Storage
	DB      DB
	Redis   Redis
	Session Session
	Rate    Rate
	Shop    Shop
	Catalog Catalog
	Log     Log
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

// Storage selects where carts are persisted: memory, file, postgres or redis.
type Storage struct {
	Backend string `conf:"default:file"`
	Dir     string `conf:"default:data/carts"`
	Key     string `conf:"default:app.cart"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:cart"`
	MaxIdleConns int    `conf:"default:2"`
	MaxOpenConns int    `conf:"default:0"`
	DisableTLS   bool   `conf:"default:true"`
}

type Redis struct {
	Address  string        `conf:"default:localhost:6379"`
	Password string        `conf:"mask"`
	DB       int           `conf:"default:0"`
	TTL      time.Duration `conf:"default:720h"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:720h"`
}

type Rate struct {
	Enabled bool          `conf:"default:true"`
	Burst   int           `conf:"default:20"`
	Every   time.Duration `conf:"default:100ms"`
	Expiry  int           `conf:"default:10"`
}

type Shop struct {
	Name     string `conf:"default:Ecosera"`
	WhatsApp string `conf:"default:6281234567890"`
}

type Catalog struct {
	Path string `conf:"default:data/products.json"`
}

type Log struct {
	Level string `conf:"default:info"`
}
