package engine

import (
	"context"
	"fmt"

	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/store"
)

// Prune applies the configured capacity and expiry to the local store.
func Prune(ctx context.Context, cfg config.Config, st *store.Dir, dryRun bool) (*store.PruneResult, error) {
	maxSize, err := cfg.Cache.MaxSizeBytes()
	if err != nil {
		return nil, fmt.Errorf("cache.max_size: %w", err)
	}
	maxAge, err := cfg.Cache.MaxAgeDuration()
	if err != nil {
		return nil, fmt.Errorf("cache.max_age: %w", err)
	}
	return st.Prune(ctx, store.PruneOptions{
		MaxSize: maxSize,
		MaxAge:  maxAge,
		DryRun:  dryRun,
	})
}
