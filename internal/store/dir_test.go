package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeClock advances one second per call so entries get distinct times.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestDir(t *testing.T) (*Dir, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	d, err := New(t.TempDir(), WithClock(clock.now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, clock
}

func put(t *testing.T, d *Dir, key, content string) {
	t.Helper()
	if err := d.Put(context.Background(), key, strings.NewReader(content)); err != nil {
		t.Fatalf("Put(%s): %v", key, err)
	}
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	return string(data)
}

func TestPutAndGet(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "buildx-abc", "hello world")

	rc, err := d.Get(context.Background(), "buildx-abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := readAll(t, rc); got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestGetRecordsAccess(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "buildx-abc", "hello world")

	before, err := d.readMeta("buildx-abc")
	if err != nil {
		t.Fatal(err)
	}
	rc, err := d.Get(context.Background(), "buildx-abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	readAll(t, rc)

	after, err := d.readMeta("buildx-abc")
	if err != nil {
		t.Fatal(err)
	}
	if !after.Accessed.After(before.Accessed) {
		t.Errorf("Accessed not advanced: %v -> %v", before.Accessed, after.Accessed)
	}
	if !after.Created.Equal(before.Created) || after.Digest != before.Digest {
		t.Errorf("Get rewrote more than the access time: %+v -> %+v", before, after)
	}
}

func TestGetMiss(t *testing.T) {
	d, _ := newTestDir(t)
	if _, err := d.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutEmptyKey(t *testing.T) {
	d, _ := newTestDir(t)
	if err := d.Put(context.Background(), "", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestPutIdempotent(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "k", "first")
	put(t, d, "k", "second")

	rc, err := d.Get(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, rc); got != "first" {
		t.Errorf("entry was overwritten: %q", got)
	}
}

func TestPutReaderError(t *testing.T) {
	d, _ := newTestDir(t)
	r := io.MultiReader(strings.NewReader("partial"), errReader{})
	if err := d.Put(context.Background(), "k", r); err == nil {
		t.Fatal("expected error")
	}
	if d.Has("k") {
		t.Error("partial entry was stored")
	}
	leftovers, _ := filepath.Glob(filepath.Join(d.Path(), entriesDir, ".tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestCorruptEntry(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "k", "original content")

	if err := os.WriteFile(d.blobPath("k"), []byte("corrupted"), 0644); err != nil {
		t.Fatal(err)
	}

	rc, err := d.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_, err = io.ReadAll(rc)
	rc.Close()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if _, err := rc.Read(make([]byte, 8)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("read after corruption = %v, want ErrCorrupt", err)
	}
	if d.Has("k") {
		t.Error("corrupt entry should be removed")
	}
}

func TestKeyEscaping(t *testing.T) {
	d, _ := newTestDir(t)
	key := "Linux buildx/a:b?c"
	put(t, d, key, "data")

	entries, err := d.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Key != key {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestGetByPrefixPrefersNewest(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "buildx-old", "old")
	put(t, d, "buildx-new", "new")
	put(t, d, "other-newest", "other")

	key, rc, err := d.GetByPrefix(context.Background(), "buildx-")
	if err != nil {
		t.Fatalf("GetByPrefix: %v", err)
	}
	if key != "buildx-new" {
		t.Errorf("chose %q, want buildx-new", key)
	}
	if got := readAll(t, rc); got != "new" {
		t.Errorf("got %q", got)
	}
}

func TestGetByPrefixIgnoresAccess(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "p-1", "one")
	put(t, d, "p-2", "two")

	// Reading the older entry must not make it the preferred prefix match.
	rc, err := d.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatal(err)
	}
	readAll(t, rc)

	key, rc, err := d.GetByPrefix(context.Background(), "p-")
	if err != nil {
		t.Fatal(err)
	}
	rc.Close()
	if key != "p-2" {
		t.Errorf("chose %q, want p-2", key)
	}
}

func TestGetByPrefixMiss(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "other-1", "x")
	if _, _, err := d.GetByPrefix(context.Background(), "buildx-"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSize(t *testing.T) {
	d, _ := newTestDir(t)
	put(t, d, "a", "12345")
	put(t, d, "b", "123")

	size, err := d.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != 8 {
		t.Errorf("Size = %d, want 8", size)
	}
}

func TestRemoveMissing(t *testing.T) {
	d, _ := newTestDir(t)
	if err := d.Remove("absent"); err != nil {
		t.Errorf("Remove of missing entry: %v", err)
	}
}

func TestDefaultDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if got := DefaultDir(); got != filepath.Join("/custom/cache", "buildcache") {
		t.Errorf("DefaultDir = %q", got)
	}
}

func TestNewEmptyDir(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error")
	}
}
