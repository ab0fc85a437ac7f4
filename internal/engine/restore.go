package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bianoble/buildcache/internal/archive"
	"github.com/bianoble/buildcache/internal/store"
	"github.com/containerd/log"
)

// RestoreEngine seeds the cache directory from the store.
type RestoreEngine struct {
	Store store.Store
}

// Restore tries key, then the newest entry under prefix. A prefix hit only
// seeds the directory; the build still has to run. An entry that cannot be
// read is skipped in favor of the next tier. On a miss dir is left empty so
// the build starts cold.
func (e *RestoreEngine) Restore(ctx context.Context, key, prefix, dir string) (*RestoreResult, error) {
	result := &RestoreResult{}
	logger := log.G(ctx).WithField("dir", dir)

	rc, err := e.Store.Get(ctx, key)
	switch {
	case err == nil:
		if unpackErr := unpack(rc, dir); unpackErr != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("restoring %s: %v", key, unpackErr))
			break
		}
		result.RestoredKey = key
		result.ExactHit = true
		result.CanSkipBuild = true
		logger.WithField("key", key).Info("restored cache (exact match)")
		return result, nil
	case !errors.Is(err, store.ErrNotFound):
		result.Warnings = append(result.Warnings, fmt.Sprintf("looking up %s: %v", key, err))
	}

	if prefix != "" {
		matched, rc, err := e.Store.GetByPrefix(ctx, prefix)
		switch {
		case err == nil && matched == key:
			// Already failed above.
			rc.Close()
		case err == nil:
			if unpackErr := unpack(rc, dir); unpackErr != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("restoring %s: %v", matched, unpackErr))
				break
			}
			result.RestoredKey = matched
			logger.WithField("key", matched).Info("restored cache (prefix match)")
			return result, nil
		case !errors.Is(err, store.ErrNotFound):
			result.Warnings = append(result.Warnings, fmt.Sprintf("looking up prefix %s: %v", prefix, err))
		}
	}

	logger.Info("cache miss; starting cold")
	return result, coldDir(dir)
}

// unpack extracts rc into dir and then reads rc to EOF. Untar stops at the
// end-of-archive marker, and the store only verifies an entry's digest once
// its stream has been fully read.
func unpack(rc io.ReadCloser, dir string) error {
	defer rc.Close()
	unpackErr := archive.Unpack(rc, dir)
	_, drainErr := io.Copy(io.Discard, rc)
	if unpackErr != nil {
		return unpackErr
	}
	if drainErr != nil {
		return fmt.Errorf("verifying archive: %w", drainErr)
	}
	return nil
}

// coldDir leaves dir present and empty.
func coldDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
