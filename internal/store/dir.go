package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/containerd/log"
	"github.com/moby/sys/atomicwriter"
	digest "github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"
)

const (
	entriesDir = "entries"
	blobExt    = ".blob"
	metaExt    = ".yaml"
)

// Entry describes one stored blob.
type Entry struct {
	Key      string        `yaml:"key"`
	Digest   digest.Digest `yaml:"digest"`
	Size     int64         `yaml:"size"`
	Created  time.Time     `yaml:"created"`
	Accessed time.Time     `yaml:"accessed"`
}

// Dir is a Store backed by a local directory. Each entry is a blob file plus
// a small YAML sidecar holding its digest and timestamps.
type Dir struct {
	dir string
	now func() time.Time
}

// Option configures a Dir.
type Option func(*Dir)

// WithClock overrides the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dir) {
		d.now = now
	}
}

// New opens a Dir store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Dir, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, entriesDir), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}
	d := &Dir{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DefaultDir returns the default store directory.
// Uses XDG_CACHE_HOME if set, otherwise ~/.cache/buildcache.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "buildcache")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.TempDir(), "buildcache")
		}
		return filepath.Join("/tmp", "buildcache")
	}
	return filepath.Join(home, ".cache", "buildcache")
}

// Path returns the store directory.
func (d *Dir) Path() string {
	return d.dir
}

// Get opens the entry stored under key. The returned reader fails with
// ErrCorrupt at EOF if the content does not match its recorded digest, and
// the corrupt entry is removed.
func (d *Dir) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	meta, err := d.readMeta(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(d.blobPath(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening cache entry %s: %w", key, err)
	}

	meta.Accessed = d.now()
	if err := d.writeMeta(*meta); err != nil {
		log.G(ctx).WithError(err).WithField("key", key).Warn("failed to record cache access")
	}

	return &verifyingReader{
		f:        f,
		verifier: meta.Digest.Verifier(),
		onCorrupt: func() {
			log.G(ctx).WithField("key", key).Warn("removing corrupt cache entry")
			_ = d.Remove(key)
		},
	}, nil
}

// GetByPrefix opens the most recently written entry whose key has prefix.
// Ties are broken by the lexically greatest key.
func (d *Dir) GetByPrefix(ctx context.Context, prefix string) (string, io.ReadCloser, error) {
	entries, err := d.Entries()
	if err != nil {
		return "", nil, err
	}

	var best *Entry
	for i := range entries {
		e := &entries[i]
		if !strings.HasPrefix(e.Key, prefix) {
			continue
		}
		if best == nil || e.Created.After(best.Created) ||
			(e.Created.Equal(best.Created) && e.Key > best.Key) {
			best = e
		}
	}
	if best == nil {
		return "", nil, ErrNotFound
	}

	rc, err := d.Get(ctx, best.Key)
	if err != nil {
		return "", nil, err
	}
	return best.Key, rc, nil
}

// Put stores r under key. No-op if the key already exists.
func (d *Dir) Put(ctx context.Context, key string, r io.Reader) error {
	if key == "" {
		return fmt.Errorf("cache put: empty key")
	}
	if d.Has(key) {
		log.G(ctx).WithField("key", key).Debug("cache entry already present")
		return nil
	}

	dir := filepath.Join(d.dir, entriesDir)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	dg := digest.Canonical.Digester()
	n, err := io.Copy(io.MultiWriter(tmp, dg.Hash()), r)
	if err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache temp file: %w", err)
	}

	if err := os.Rename(tmpPath, d.blobPath(key)); err != nil {
		return fmt.Errorf("renaming cache temp file: %w", err)
	}
	success = true

	now := d.now()
	meta := Entry{Key: key, Digest: dg.Digest(), Size: n, Created: now, Accessed: now}
	if err := d.writeMeta(meta); err != nil {
		_ = os.Remove(d.blobPath(key))
		return err
	}

	log.G(ctx).WithFields(log.Fields{
		"key":    key,
		"size":   n,
		"digest": meta.Digest,
	}).Debug("stored cache entry")
	return nil
}

// Has reports whether key is stored, without opening it.
func (d *Dir) Has(key string) bool {
	if _, err := os.Stat(d.metaPath(key)); err != nil {
		return false
	}
	_, err := os.Stat(d.blobPath(key))
	return err == nil
}

// Remove deletes an entry. Removing a missing entry is not an error.
func (d *Dir) Remove(key string) error {
	if err := os.Remove(d.metaPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache entry %s: %w", key, err)
	}
	if err := os.Remove(d.blobPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache entry %s: %w", key, err)
	}
	return nil
}

// Entries lists every complete entry in the store, sorted by key.
func (d *Dir) Entries() ([]Entry, error) {
	dirents, err := os.ReadDir(filepath.Join(d.dir, entriesDir))
	if err != nil {
		return nil, fmt.Errorf("listing store %s: %w", d.dir, err)
	}

	var entries []Entry
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, metaExt) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, metaExt))
		if err != nil {
			continue
		}
		meta, err := d.readMeta(key)
		if err != nil {
			continue
		}
		if _, err := os.Stat(d.blobPath(key)); err != nil {
			continue
		}
		entries = append(entries, *meta)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Size returns the total size of stored blobs in bytes.
func (d *Dir) Size() (int64, error) {
	entries, err := d.Entries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total, nil
}

func (d *Dir) readMeta(key string) (*Entry, error) {
	data, err := os.ReadFile(d.metaPath(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing cache entry %s: %w", key, err)
	}
	if err := e.Digest.Validate(); err != nil {
		return nil, fmt.Errorf("cache entry %s: %w", key, err)
	}
	return &e, nil
}

func (d *Dir) writeMeta(e Entry) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry %s: %w", e.Key, err)
	}
	if err := atomicwriter.WriteFile(d.metaPath(e.Key), data, 0644); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", e.Key, err)
	}
	return nil
}

func (d *Dir) blobPath(key string) string {
	return filepath.Join(d.dir, entriesDir, url.QueryEscape(key)+blobExt)
}

func (d *Dir) metaPath(key string) string {
	return filepath.Join(d.dir, entriesDir, url.QueryEscape(key)+metaExt)
}

// verifyingReader checks the content digest once the blob has been read to
// EOF.
type verifyingReader struct {
	f         *os.File
	verifier  digest.Verifier
	onCorrupt func()
	done      bool
	closed    bool
	err       error
}

func (r *verifyingReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.f.Read(p)
	if n > 0 {
		r.verifier.Write(p[:n])
	}
	if err == io.EOF && !r.done {
		r.done = true
		if !r.verifier.Verified() {
			_ = r.Close()
			r.onCorrupt()
			r.err = ErrCorrupt
			return n, r.err
		}
	}
	return n, err
}

func (r *verifyingReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}
