package manifest

import (
	"sort"

	digest "github.com/opencontainers/go-digest"
)

// Delta lists how the file set moved between two manifests.
type Delta struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the two manifests hashed the same files.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares old to current by path. A path that appears more than once
// (a context file also listed as an auxiliary input) compares by its set of
// digests.
func Diff(old, current *Manifest) Delta {
	before := byPath(old)
	after := byPath(current)

	var d Delta
	for path, digests := range after {
		prev, ok := before[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case !sameDigests(prev, digests):
			d.Changed = append(d.Changed, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}

func byPath(m *Manifest) map[string][]digest.Digest {
	out := make(map[string][]digest.Digest)
	if m == nil {
		return out
	}
	for _, e := range m.Files {
		out[e.Path] = append(out[e.Path], e.Digest)
	}
	for _, ds := range out {
		sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	}
	return out
}

func sameDigests(a, b []digest.Digest) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
