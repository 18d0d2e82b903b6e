// Package store contains concrete implementations of core.BlobStore.
//
// The canonical BlobStore interface lives in the core package to avoid
// dependency cycles. Implementation packages (file, memory, redis, postgres)
// provide storage backends that can be swapped without touching the catalog
// or order code. Callers should depend on the core interface rather than
// concrete types so tests can substitute the in-memory store.
package store
