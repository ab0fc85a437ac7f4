package engine

import (
	"context"

	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/manifest"
)

// DiffEngine explains why a key changed.
type DiffEngine struct {
	ProjectRoot string
	Skip        []string
}

// Diff recomputes the key and compares its manifest to recorded. A nil
// recorded manifest reports every current file as added.
func (e *DiffEngine) Diff(ctx context.Context, cfg config.Config, recorded *manifest.Manifest) (*DiffResult, error) {
	kr, err := (&KeyEngine{ProjectRoot: e.ProjectRoot, Skip: e.Skip}).Compute(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r := &DiffResult{
		Key:   kr.Key,
		Delta: manifest.Diff(recorded, kr.Manifest),
	}
	if recorded != nil {
		r.RecordedKey = recorded.Key
	}
	return r, nil
}
