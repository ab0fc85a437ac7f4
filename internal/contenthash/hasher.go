// Package contenthash computes a deterministic digest over a build context:
// a directory tree plus an explicit list of auxiliary files.
//
// Only file bytes and path identity feed the digest. Timestamps, permissions,
// ownership and symbolic links never do.
package contenthash

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/containerd/log"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	digest "github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// Hasher walks a build context and produces a DigestSet.
type Hasher struct {
	// Exclude holds .dockerignore-style patterns matched against paths
	// relative to the root. Auxiliary files are never excluded.
	Exclude []string

	// IgnoreFile is an optional file of additional exclude patterns.
	IgnoreFile string

	// BaseDir resolves relative auxiliary file paths. The declared path,
	// not the resolved one, is the file's identity in the digest so that
	// the same config hashes identically from any checkout location.
	BaseDir string

	// Skip lists paths, absolute or relative to BaseDir, that are pruned from
	// the walk whether or not they exist yet. It keeps the tool's own output
	// (stores, cache directories, manifests) from feeding back into the key.
	Skip []string

	// Workers bounds concurrent file reads. Values <= 1 hash serially.
	Workers int
}

type hashJob struct {
	identity string
	path     string
}

// Hash returns one digest per regular file under root plus one per entry in
// files. Every auxiliary file is checked before the tree is walked, so a
// missing input fails without computing a partial set.
func (h *Hasher) Hash(ctx context.Context, root string, files []string) (*DigestSet, error) {
	jobs := make([]hashJob, 0, len(files))
	for _, f := range files {
		path := f
		if !filepath.IsAbs(path) && h.BaseDir != "" {
			path = filepath.Join(h.BaseDir, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, &MissingInputError{Path: f, Err: err}
		}
		if !info.Mode().IsRegular() {
			return nil, &MissingInputError{Path: f, Err: errors.New("not a regular file")}
		}
		jobs = append(jobs, hashJob{identity: filepath.ToSlash(filepath.Clean(f)), path: path})
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, &MissingRootError{Path: root, Err: err}
	}
	info, err := os.Stat(realRoot)
	if err != nil {
		return nil, &MissingRootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &MissingRootError{Path: root, Err: errors.New("not a directory")}
	}

	matcher, err := h.matcher()
	if err != nil {
		return nil, err
	}
	skip, err := h.skipSet(root, realRoot)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(realRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(realRoot, path)
		if relErr != nil {
			return relErr
		}
		if _, ok := skip[rel]; ok {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		// Directories and symlinks are structure, not content.
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher != nil {
			excluded, matchErr := matcher.MatchesOrParentMatches(rel)
			if matchErr != nil {
				return fmt.Errorf("matching %s: %w", rel, matchErr)
			}
			if excluded {
				return nil
			}
		}
		jobs = append(jobs, hashJob{identity: filepath.ToSlash(rel), path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	set := NewDigestSet()
	if err := h.hashAll(ctx, jobs, set); err != nil {
		return nil, err
	}

	log.G(ctx).WithFields(log.Fields{
		"root":  root,
		"files": set.Len(),
	}).Debug("hashed build context")
	return set, nil
}

func (h *Hasher) hashAll(ctx context.Context, jobs []hashJob, set *DigestSet) error {
	if h.Workers <= 1 {
		for _, j := range jobs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d, err := HashFile(j.identity, j.path)
			if err != nil {
				return err
			}
			set.Add(FileDigest{Path: j.identity, Digest: d})
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			d, err := HashFile(j.identity, j.path)
			if err != nil {
				return err
			}
			set.Add(FileDigest{Path: j.identity, Digest: d})
			return nil
		})
	}
	return g.Wait()
}

// skipSet maps each Skip entry that lies strictly inside the context to its
// path relative to realRoot. Entries are matched both lexically against root
// and through symlink resolution, so a skipped path is found whichever way
// it was spelled.
func (h *Hasher) skipSet(root, realRoot string) (map[string]struct{}, error) {
	if len(h.Skip) == 0 {
		return nil, nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(h.Skip))
	add := func(base, p string) {
		rel, err := filepath.Rel(base, p)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return
		}
		set[rel] = struct{}{}
	}
	for _, p := range h.Skip {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) && h.BaseDir != "" {
			p = filepath.Join(h.BaseDir, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		add(absRoot, abs)
		add(realRoot, abs)
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			add(realRoot, resolved)
		}
	}
	return set, nil
}

func (h *Hasher) matcher() (*patternmatcher.PatternMatcher, error) {
	patterns := append([]string(nil), h.Exclude...)
	if h.IgnoreFile != "" {
		path := h.IgnoreFile
		if !filepath.IsAbs(path) && h.BaseDir != "" {
			path = filepath.Join(h.BaseDir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening ignore file %s: %w", h.IgnoreFile, err)
		}
		defer f.Close()
		extra, err := ignorefile.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading ignore file %s: %w", h.IgnoreFile, err)
		}
		patterns = append(patterns, extra...)
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("compiling exclude patterns: %w", err)
	}
	return pm, nil
}

// HashFile digests one file under the given identity. The identity is
// length-prefixed ahead of the content so that a rename changes the digest
// and no identity/content split can collide with another.
func HashFile(identity, path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return HashReader(identity, f)
}

// HashReader is HashFile over an arbitrary stream.
func HashReader(identity string, r io.Reader) (digest.Digest, error) {
	dg := digest.SHA256.Digester()
	w := dg.Hash()

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(identity)))
	w.Write(lenBuf[:])
	io.WriteString(w, identity)

	if _, err := io.Copy(w, r); err != nil {
		return "", fmt.Errorf("hashing %s: %w", identity, err)
	}
	return dg.Digest(), nil
}
