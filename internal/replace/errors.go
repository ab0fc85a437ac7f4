package replace

import (
	"errors"
	"fmt"
)

// ErrOverlappingPaths is returned when the current and fresh directories are
// the same path or one contains the other. Nothing is modified.
var ErrOverlappingPaths = errors.New("cache directories overlap")

// DeleteFailedError reports that the current directory could not be removed.
// The fresh directory has not been moved and the current path may be partly
// deleted; the caller must not save from it.
type DeleteFailedError struct {
	Path string
	Err  error
}

func (e *DeleteFailedError) Error() string {
	return fmt.Sprintf("deleting cache directory %s: %s", e.Path, e.Err)
}

func (e *DeleteFailedError) Unwrap() error {
	return e.Err
}

// MoveFailedError reports that the fresh directory could not be moved into
// place after the current one was deleted. The current path is left empty,
// which the next run treats as a cold cache.
type MoveFailedError struct {
	From string
	To   string
	Err  error
}

func (e *MoveFailedError) Error() string {
	return fmt.Sprintf("moving cache directory %s to %s: %s", e.From, e.To, e.Err)
}

func (e *MoveFailedError) Unwrap() error {
	return e.Err
}

// IsDegraded reports whether err leaves a cold but consistent cache, as
// opposed to a failure the caller has to act on.
func IsDegraded(err error) bool {
	var mfe *MoveFailedError
	return errors.As(err, &mfe)
}
