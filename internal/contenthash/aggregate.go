package contenthash

import (
	"sort"
	"strings"

	digest "github.com/opencontainers/go-digest"
)

// Aggregate reduces a DigestSet to a single digest.
//
// Each member is rendered as its canonical "sha256:<hex>" string, the strings
// are sorted bytewise, joined with newlines and hashed again. Sorting by
// digest value rather than by path makes the result independent of the
// order in which files were visited.
func Aggregate(set *DigestSet) digest.Digest {
	return AggregateDigests(set.digests())
}

// AggregateDigests is Aggregate over a plain slice. The slice is not modified.
func AggregateDigests(ds []digest.Digest) digest.Digest {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	sort.Strings(lines)
	return digest.SHA256.FromString(strings.Join(lines, "\n"))
}
