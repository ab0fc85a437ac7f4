// Package archive converts a build cache directory to and from the single
// blob kept in the cache store.
package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/moby/go-archive"
	"github.com/moby/go-archive/compression"
)

// Pack streams dir as a zstd-compressed tar. go-archive only decompresses
// zstd, so the plain tar stream is compressed here.
func Pack(dir string) (io.ReadCloser, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("packing %s: not a directory", dir)
	}
	tarStream, err := archive.TarWithOptions(dir, &archive.TarOptions{
		Compression: compression.None,
	})
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", dir, err)
	}

	pr, pw := io.Pipe()
	go func() {
		defer tarStream.Close()
		zw, err := zstd.NewWriter(pw)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		_, err = io.Copy(zw, tarStream)
		if closeErr := zw.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()
	return pr, nil
}

// Unpack replaces the contents of dir with the archive read from r.
// Ownership recorded in the archive is ignored.
func Unpack(r io.Reader, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := archive.Untar(r, dir, &archive.TarOptions{NoLchown: true}); err != nil {
		return fmt.Errorf("unpacking into %s: %w", dir, err)
	}
	return nil
}

// IsEmpty reports whether dir is missing or has no entries.
func IsEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()
	names, err := f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(names) == 0, nil
}
