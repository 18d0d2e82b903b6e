// Package postgres implements core.BlobStore on a single PostgreSQL table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hupe1980/grocerymesh/core"
)

// Schema creates the blob table. Safe to run repeatedly.
const Schema = `CREATE TABLE IF NOT EXISTS grocery_blobs (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Store persists each blob as one row. Upserts are single statements and
// therefore atomic.
type Store struct {
	pool DBPool
}

// New wraps a pool.
func New(pool DBPool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pgx pool for dsn and ensures the schema exists.
func Connect(ctx context.Context, dsn string) (*Store, *pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open pool: %w", err)
	}
	s := New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

// EnsureSchema creates the blob table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create grocery_blobs: %w", err)
	}
	return nil
}

// Get returns the value stored under key or core.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM grocery_blobs WHERE key=$1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return data, nil
}

// Put upserts data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO grocery_blobs(key, value)
		VALUES($1, $2)
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
	`, key, data)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM grocery_blobs WHERE key=$1)`, key).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return ok, nil
}

// Delete removes key or returns core.ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM grocery_blobs WHERE key=$1`, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
