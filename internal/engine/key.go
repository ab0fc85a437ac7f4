package engine

import (
	"context"
	"fmt"

	"github.com/bianoble/buildcache/internal/cachekey"
	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/contenthash"
	"github.com/bianoble/buildcache/internal/manifest"
	"github.com/containerd/log"
)

// KeyEngine derives the cache key for a build context.
type KeyEngine struct {
	ProjectRoot string

	// Skip adds paths written by the caller, such as the manifest or a store
	// override, to those left out of the context. The configured cache
	// directories and store are always left out.
	Skip []string
}

// Compute hashes the configured context and auxiliary files and returns the
// resulting key together with the per-file manifest.
func (e *KeyEngine) Compute(ctx context.Context, cfg config.Config) (*KeyResult, error) {
	b, err := cachekey.New(cfg.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("key prefix: %w", err)
	}

	h := &contenthash.Hasher{
		Exclude:    cfg.Exclude,
		IgnoreFile: cfg.IgnoreFile,
		BaseDir:    e.ProjectRoot,
		Skip:       append([]string{cfg.Cache.Dir, cfg.Cache.FreshDir, cfg.Cache.Store}, e.Skip...),
		Workers:    cfg.Workers,
	}
	set, err := h.Hash(ctx, config.ResolvePath(e.ProjectRoot, cfg.Context), cfg.Files)
	if err != nil {
		return nil, err
	}

	agg := contenthash.Aggregate(set)
	key := b.Key(agg)

	log.G(ctx).WithFields(log.Fields{
		"key":   key,
		"files": set.Len(),
	}).Debug("computed cache key")

	return &KeyResult{
		Key:       key,
		Prefix:    b.PrefixOnly(),
		Aggregate: agg,
		Manifest:  manifest.FromDigestSet(key, set),
	}, nil
}
