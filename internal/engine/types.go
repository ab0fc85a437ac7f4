package engine

import (
	"github.com/bianoble/buildcache/internal/manifest"
	digest "github.com/opencontainers/go-digest"
)

// KeyResult holds the outcome of hashing a build context.
type KeyResult struct {
	Key       string
	Prefix    string
	Aggregate digest.Digest
	Manifest  *manifest.Manifest
}

// Files returns the number of files that contributed to the key.
func (r *KeyResult) Files() int {
	if r.Manifest == nil {
		return 0
	}
	return len(r.Manifest.Files)
}

// RestoreResult holds the outcome of a restore operation.
type RestoreResult struct {
	// RestoredKey is the key of the entry unpacked into the cache directory,
	// empty on a miss.
	RestoredKey string

	// ExactHit is true when RestoredKey equals the requested key.
	ExactHit bool

	// CanSkipBuild is true when the restored cache already corresponds to
	// the current inputs.
	CanSkipBuild bool

	Warnings []string
}

// SaveResult holds the outcome of a save operation.
type SaveResult struct {
	Key    string
	Saved  bool
	Reason string // why nothing was uploaded
}

// RunResult holds the outcome of a full restore, build, replace, save run.
type RunResult struct {
	Key         string
	RestoredKey string
	ExactHit    bool
	Built       bool
	Replaced    bool
	Saved       bool

	// Warnings are non-fatal problems. The build itself succeeded.
	Warnings []string
}

// DiffResult compares the current inputs to a recorded manifest.
type DiffResult struct {
	Key         string
	RecordedKey string
	Delta       manifest.Delta
}

// Changed reports whether the key differs from the recorded one.
func (r *DiffResult) Changed() bool {
	return r.Key != r.RecordedKey
}
