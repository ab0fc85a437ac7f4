package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/bianoble/buildcache/internal/builder"
	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/replace"
	"github.com/bianoble/buildcache/internal/store"
	"github.com/containerd/log"
)

// RunEngine orchestrates a full pipeline run: key, restore, build, replace
// and save.
type RunEngine struct {
	Store       store.Store
	Builder     builder.Engine
	Replacer    *replace.Replacer
	ProjectRoot string

	// Skip is passed through to the KeyEngine.
	Skip []string
}

// RunOptions configures a pipeline run.
type RunOptions struct {
	// Force builds even when the exact key was restored.
	Force bool
}

// Run executes the pipeline. A build failure is returned as an error and
// leaves the restored cache directory untouched. Once the build has succeeded,
// problems swapping or saving the cache are reported as warnings in the
// result and never fail the run.
func (e *RunEngine) Run(ctx context.Context, cfg config.Config, opts RunOptions) (*RunResult, error) {
	current := config.ResolvePath(e.ProjectRoot, cfg.Cache.Dir)
	fresh := config.ResolvePath(e.ProjectRoot, cfg.Cache.FreshDir)
	if err := replace.CheckPaths(current, fresh); err != nil {
		return nil, err
	}

	kr, err := (&KeyEngine{ProjectRoot: e.ProjectRoot, Skip: e.Skip}).Compute(ctx, cfg)
	if err != nil {
		return nil, err
	}
	result := &RunResult{Key: kr.Key}
	logger := log.G(ctx).WithField("key", kr.Key)

	rr, err := (&RestoreEngine{Store: e.Store}).Restore(ctx, kr.Key, kr.Prefix, current)
	if err != nil {
		return result, err
	}
	result.RestoredKey = rr.RestoredKey
	result.ExactHit = rr.ExactHit
	result.Warnings = append(result.Warnings, rr.Warnings...)

	if rr.CanSkipBuild && !opts.Force {
		logger.Info("inputs unchanged; skipping build")
		return result, nil
	}

	// A leftover fresh directory from an interrupted run must not be saved.
	if err := os.RemoveAll(fresh); err != nil {
		return result, fmt.Errorf("clearing %s: %w", fresh, err)
	}

	req := builder.Request{
		ContextDir: config.ResolvePath(e.ProjectRoot, cfg.Context),
		File:       config.ResolvePath(e.ProjectRoot, cfg.Build.File),
		Platforms:  cfg.Build.Platforms,
		Tags:       cfg.Build.Tags,
		Args:       cfg.Build.Args,
		Push:       cfg.Build.PushEnabled(),
		CacheFrom:  current,
		CacheTo:    fresh,
	}
	if err := e.Builder.Build(ctx, req); err != nil {
		return result, fmt.Errorf("build failed: %w", err)
	}
	result.Built = true

	if err := e.replacer().Replace(ctx, current, fresh); err != nil {
		if replace.IsDegraded(err) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%v; the next run starts with a cold cache", err))
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%v; cache not saved", err))
		}
		return result, nil
	}
	result.Replaced = true

	sr, err := (&SaveEngine{Store: e.Store}).Save(ctx, kr.Key, current)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return result, nil
	}
	result.Saved = sr.Saved

	return result, nil
}

func (e *RunEngine) replacer() *replace.Replacer {
	if e.Replacer == nil {
		return replace.New()
	}
	return e.Replacer
}
