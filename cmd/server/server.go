package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/ecosera-cart/api"
	"github.com/irsalhamdi/ecosera-cart/config"
	"github.com/irsalhamdi/ecosera-cart/core/cart"
	"github.com/irsalhamdi/ecosera-cart/core/catalog"
	"github.com/irsalhamdi/ecosera-cart/core/checkout"
	"github.com/irsalhamdi/ecosera-cart/database"
	"github.com/irsalhamdi/ecosera-cart/rate"
	"github.com/irsalhamdi/ecosera-cart/storage"
	"github.com/irsalhamdi/ecosera-cart/storage/file"
	"github.com/irsalhamdi/ecosera-cart/storage/memory"
	"github.com/irsalhamdi/ecosera-cart/storage/postgres"
	"github.com/irsalhamdi/ecosera-cart/storage/redis"
	"github.com/sirupsen/logrus"
)

const (
	cartIdleTimeout = 30 * time.Minute
	evictInterval   = 5 * time.Minute
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	const prefix = "CART"
	var cfg config.Config
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}

	logger.Info("starting server")
	defer logger.Info("shutdown complete")

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeKV, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	defer closeKV()

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("loading catalog from %s: %w", cfg.Catalog.Path, err)
	}

	carts := cart.NewRegistry(cart.KeyedPersisters(kv, cfg.Storage.Key), logger)
	go evictIdle(ctx, carts, logger)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime

	var lim *rate.Limiter
	if cfg.Rate.Enabled {
		lim = rate.NewLimiter(cfg.Rate.Burst, time.Duration(cfg.Rate.Expiry)*time.Minute, rate.Every(cfg.Rate.Every))
		defer lim.Stop()
	}

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		Session:    sessionManager,
		Carts:      carts,
		Catalog:    cat,
		Shop:       checkout.Shop{Name: cfg.Shop.Name, WhatsApp: cfg.Shop.WhatsApp},
		Limiter:    lim,
	})

	srv := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (storage.KV, func(), error) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case "memory":
		logger.Warn("carts are kept in memory and will not survive a restart")
		return memory.New(), noop, nil

	case "file":
		s, err := file.Open(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case "postgres":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.New(db), func() { db.Close() }, nil

	case "redis":
		s, client, err := redis.Dial(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { client.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func evictIdle(ctx context.Context, carts *cart.Registry, logger logrus.FieldLogger) {
	t := time.NewTicker(evictInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := carts.Evict(cartIdleTimeout); n > 0 {
				logger.WithField("carts", n).Debug("evicted idle carts")
			}
		}
	}
}
