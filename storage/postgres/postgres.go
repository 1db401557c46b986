// Package postgres keeps cart documents in the cart_storage table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecosera-cart/storage"
	"github.com/jmoiron/sqlx"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type row struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
	SELECT key, value, updated_at
	FROM cart_storage
	WHERE key = $1`

	var r row
	if err := sqlx.GetContext(ctx, s.db, &r, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("selecting key[%s]: %w", key, err)
	}
	return []byte(r.Value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const q = `
	INSERT INTO cart_storage (key, value, updated_at)
	VALUES (:key, :value, :updated_at)
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	r := row{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	if _, err := sqlx.NamedExecContext(ctx, s.db, q, r); err != nil {
		return fmt.Errorf("upserting key[%s]: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM cart_storage WHERE key = $1`

	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("deleting key[%s]: %w", key, err)
	}
	return nil
}
