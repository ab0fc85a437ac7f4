package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bianoble/buildcache/internal/archive"
	"github.com/bianoble/buildcache/internal/store"
	"github.com/containerd/log"
)

// SaveEngine uploads the cache directory to the store.
type SaveEngine struct {
	Store store.Store
}

// Save archives dir under key unless the store already holds key or dir
// has nothing in it.
func (e *SaveEngine) Save(ctx context.Context, key, dir string) (*SaveResult, error) {
	result := &SaveResult{Key: key}
	logger := log.G(ctx).WithField("key", key)

	rc, err := e.Store.Get(ctx, key)
	if err == nil {
		rc.Close()
		result.Reason = "entry already exists"
		logger.Info("cache entry already exists; not saving")
		return result, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking %s: %w", key, err)
	}

	empty, err := archive.IsEmpty(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	if empty {
		result.Reason = "cache directory is empty"
		logger.WithField("dir", dir).Warn("cache directory is empty; not saving")
		return result, nil
	}

	packed, err := archive.Pack(dir)
	if err != nil {
		return nil, err
	}
	defer packed.Close()

	if err := e.Store.Put(ctx, key, packed); err != nil {
		return nil, fmt.Errorf("saving %s: %w", key, err)
	}

	result.Saved = true
	logger.Info("saved cache")
	return result, nil
}
