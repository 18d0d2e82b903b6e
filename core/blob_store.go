package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore implementations when a key is absent.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines durable key/value persistence for catalog, recipe and order
// records. Implementations must make Put all-or-nothing: a reader never sees a
// partially written value. Short method names mirror the other *Store types.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
