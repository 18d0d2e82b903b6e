// Package redis implements core.BlobStore on Redis strings.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hupe1980/grocerymesh/core"
)

// DefaultPrefix namespaces keys written by the store.
const DefaultPrefix = "grocerymesh:"

// Store keeps each blob in a single Redis string. SET replaces a value in one
// command, so readers never see partial writes.
type Store struct {
	client goredis.Cmdable
	prefix string
}

// Options configure the Redis store.
type Options struct {
	Prefix string
}

// New wraps an existing client (e.g. *redis.Client or a cluster client).
func New(client goredis.Cmdable, optFns ...func(o *Options)) *Store {
	opts := Options{Prefix: DefaultPrefix}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, prefix: opts.Prefix}
}

// NewFromAddr dials a single Redis node.
func NewFromAddr(addr string, optFns ...func(o *Options)) *Store {
	return New(goredis.NewClient(&goredis.Options{Addr: addr}), optFns...)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client when it owns a connection pool.
func (s *Store) Close() error {
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get returns the value stored under key or core.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Put stores data under key without expiry.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Delete removes key or returns core.ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
