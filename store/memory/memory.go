// Package memory implements an in-process core.BlobStore.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/grocerymesh/core"
)

// Store is a process-local BlobStore useful for tests, examples and
// ephemeral sessions. Values are copied on Put and Get so callers cannot
// mutate stored bytes. Nothing survives a restart.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key or core.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Put stores (or overwrites) a copy of data under key.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[key] = cp
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok, nil
}

// Delete removes key or returns core.ErrNotFound.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return core.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

// Keys returns the stored keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
