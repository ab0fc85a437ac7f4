// Package store defines the key-addressed blob store that persists build
// cache archives between pipeline runs, plus a local directory-backed
// implementation of it.
package store

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no entry matches a key or prefix.
var ErrNotFound = errors.New("cache entry not found")

// ErrCorrupt is returned by a reader whose content did not match the digest
// recorded when the entry was written.
var ErrCorrupt = errors.New("cache entry corrupt")

// Store is a key-addressed blob store. Capacity, eviction and the choice
// among several prefix matches are the store's own policy.
type Store interface {
	// Get opens the entry stored under exactly key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// GetByPrefix opens the store's preferred entry whose key starts with
	// prefix and reports which key it chose.
	GetByPrefix(ctx context.Context, prefix string) (string, io.ReadCloser, error)

	// Put uploads r under key. Entries are immutable; putting an existing
	// key is a no-op.
	Put(ctx context.Context, key string, r io.Reader) error
}
