package replace

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/containerd/continuity/fs"
)

// FS abstracts the filesystem operations the replacer performs, so tests
// can inject failures at either step.
type FS interface {
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}

// OSFS implements FS using the real operating system filesystem.
type OSFS struct{}

func (OSFS) RemoveAll(path string) error { return os.RemoveAll(path) }

// Rename moves a directory, falling back to copy-then-remove when the two
// paths live on different filesystems.
func (OSFS) Rename(oldpath, newpath string) error {
	err := os.Rename(oldpath, newpath)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := fs.CopyDir(newpath, oldpath); err != nil {
		_ = os.RemoveAll(newpath)
		return fmt.Errorf("copying across devices: %w", err)
	}
	return os.RemoveAll(oldpath)
}
