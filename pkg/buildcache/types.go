package buildcache

import (
	"github.com/bianoble/buildcache/internal/engine"
	"github.com/bianoble/buildcache/internal/store"
)

// Type aliases re-export engine result types as the public API.
// Users import "github.com/bianoble/buildcache/pkg/buildcache" and use
// buildcache.KeyResult, buildcache.RunResult, etc.

type KeyResult = engine.KeyResult
type RestoreResult = engine.RestoreResult
type SaveResult = engine.SaveResult
type RunResult = engine.RunResult
type DiffResult = engine.DiffResult
type InfoResult = engine.InfoResult
type PruneResult = store.PruneResult
