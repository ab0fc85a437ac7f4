package manifest

import (
	"github.com/bianoble/buildcache/internal/contenthash"
	digest "github.com/opencontainers/go-digest"
)

// Manifest records the per-file digests behind a cache key, so a later run
// can explain why its key differs.
type Manifest struct {
	Version   int           `yaml:"version"`
	Key       string        `yaml:"key"`
	Aggregate digest.Digest `yaml:"aggregate"`
	Files     []Entry       `yaml:"files"`
}

// Entry records the digest of one hashed file.
type Entry struct {
	Path   string        `yaml:"path"`
	Digest digest.Digest `yaml:"digest"`
}

// FromDigestSet builds a manifest for key from a hashing pass.
func FromDigestSet(key string, set *contenthash.DigestSet) *Manifest {
	m := &Manifest{
		Version:   1,
		Key:       key,
		Aggregate: contenthash.Aggregate(set),
	}
	for _, fd := range set.Entries() {
		m.Files = append(m.Files, Entry{Path: fd.Path, Digest: fd.Digest})
	}
	return m
}
