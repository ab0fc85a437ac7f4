// Package replace swaps a freshly written build-cache directory into the
// place of the previously restored one.
//
// The swap is delete-then-move rather than a merge, so stale entries never
// accumulate in the cache that is saved for the next run.
package replace

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/containerd/log"
)

// Replacer performs the directory swap. The zero value uses the OS filesystem.
type Replacer struct {
	FS FS
}

// New returns a Replacer over the real filesystem.
func New() *Replacer {
	return &Replacer{FS: OSFS{}}
}

func (r *Replacer) fs() FS {
	if r.FS == nil {
		return OSFS{}
	}
	return r.FS
}

// Replace makes fresh occupy current. It must only be called after the build
// that populated fresh has succeeded.
//
// A *DeleteFailedError is fatal and returned before the move is attempted.
// A *MoveFailedError means current is now empty; callers should log it and
// carry on with a cold cache (see IsDegraded).
func (r *Replacer) Replace(ctx context.Context, current, fresh string) error {
	if err := CheckPaths(current, fresh); err != nil {
		return err
	}

	fsys := r.fs()
	logger := log.G(ctx).WithFields(log.Fields{
		"current": current,
		"fresh":   fresh,
	})

	if err := fsys.RemoveAll(current); err != nil {
		logger.WithError(err).Error("failed to delete stale cache directory")
		return &DeleteFailedError{Path: current, Err: err}
	}

	if err := fsys.Rename(fresh, current); err != nil {
		logger.WithError(err).Warn("failed to move fresh cache into place; continuing with a cold cache")
		return &MoveFailedError{From: fresh, To: current, Err: err}
	}

	logger.Debug("replaced cache directory")
	return nil
}

// CheckPaths rejects paths where deleting current would also destroy
// fresh, or where fresh would be moved into itself.
func CheckPaths(current, fresh string) error {
	a, err := resolve(current)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", current, err)
	}
	b, err := resolve(fresh)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", fresh, err)
	}
	if a == b || within(a, b) || within(b, a) {
		return fmt.Errorf("%w: %s and %s", ErrOverlappingPaths, current, fresh)
	}
	return nil
}

// within reports whether path is strictly inside dir.
func within(dir, path string) bool {
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// resolve returns an absolute path with symlinks evaluated for the longest
// existing prefix. The remainder need not exist.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return resolveExisting(abs), nil
}

func resolveExisting(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	dir := filepath.Dir(path)
	if dir == path {
		return path
	}
	return filepath.Join(resolveExisting(dir), filepath.Base(path))
}
