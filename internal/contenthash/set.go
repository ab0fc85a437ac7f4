package contenthash

import (
	"sort"
	"sync"

	digest "github.com/opencontainers/go-digest"
)

// FileDigest binds one hashed file to its content digest.
type FileDigest struct {
	Path   string
	Digest digest.Digest
}

// DigestSet is an unordered accumulation of file digests from one hashing
// pass. It is safe for concurrent Add.
type DigestSet struct {
	mu      sync.Mutex
	entries []FileDigest
}

// NewDigestSet returns an empty set.
func NewDigestSet() *DigestSet {
	return &DigestSet{}
}

// Add appends a digest to the set.
func (s *DigestSet) Add(fd FileDigest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, fd)
}

// Len returns the number of digests in the set.
func (s *DigestSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the set sorted by path.
// The order is for reporting only and plays no part in aggregation.
func (s *DigestSet) Entries() []FileDigest {
	s.mu.Lock()
	out := make([]FileDigest, len(s.entries))
	copy(out, s.entries)
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Digest < out[j].Digest
	})
	return out
}

// digests returns the raw digest values in insertion order.
func (s *DigestSet) digests() []digest.Digest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]digest.Digest, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Digest
	}
	return out
}
