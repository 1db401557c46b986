// Package redis keeps cart documents in Redis with an optional TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecosera-cart/config"
	"github.com/irsalhamdi/ecosera-cart/storage"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "ecosera"

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

type Store struct {
	client cmdable
	ttl    time.Duration
}

// Dial connects to Redis and verifies the connection with a ping.
func Dial(ctx context.Context, cfg config.Redis) (*Store, *redis.Client, error) {
	if cfg.Address == "" {
		return nil, nil, errors.New("redis address is required")
	}

	raw := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	return New(raw, cfg.TTL), raw, nil
}

// New wraps an existing client. A zero ttl keeps keys forever.
func New(client cmdable, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(k string) string {
	return keyNamespace + ":" + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting key[%s]: %w", key, err)
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("setting key[%s]: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("deleting key[%s]: %w", key, err)
	}
	return nil
}
