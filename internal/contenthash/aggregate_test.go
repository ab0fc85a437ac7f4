package contenthash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	digest "github.com/opencontainers/go-digest"
	"pgregory.net/rapid"
)

func TestAggregateKnownValue(t *testing.T) {
	a := digest.SHA256.FromString("a")
	b := digest.SHA256.FromString("b")

	lines := []string{a.String(), b.String()}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	want := "sha256:" + hex.EncodeToString(sum[:])

	if got := AggregateDigests([]digest.Digest{b, a}); got.String() != want {
		t.Errorf("AggregateDigests = %s, want %s", got, want)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(NewDigestSet())
	if got != digest.SHA256.FromString("") {
		t.Errorf("empty aggregate = %s", got)
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	in := []digest.Digest{digest.SHA256.FromString("z"), digest.SHA256.FromString("a")}
	first := in[0]
	AggregateDigests(in)
	if in[0] != first {
		t.Error("input slice was reordered")
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		contents := rapid.SliceOfN(rapid.String(), 0, 32).Draw(t, "contents")
		ds := make([]digest.Digest, len(contents))
		for i, c := range contents {
			ds[i] = digest.SHA256.FromString(c)
		}
		shuffled := rapid.Permutation(ds).Draw(t, "shuffled")

		inOrder := NewDigestSet()
		for _, d := range ds {
			inOrder.Add(FileDigest{Digest: d})
		}
		reordered := NewDigestSet()
		for _, d := range shuffled {
			reordered.Add(FileDigest{Digest: d})
		}

		if Aggregate(inOrder) != Aggregate(reordered) {
			t.Fatalf("aggregate depends on insertion order")
		}
	})
}

func TestAggregateSingleByteSensitivity(t *testing.T) {
	root := t.TempDir()
	n := 0

	rapid.Check(t, func(rt *rapid.T) {
		files := rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 1, 64), 1, 8).Draw(rt, "files")
		victim := rapid.IntRange(0, len(files)-1).Draw(rt, "victim")
		offset := rapid.IntRange(0, len(files[victim])-1).Draw(rt, "offset")

		n++
		dir := filepath.Join(root, fmt.Sprintf("case-%d", n))
		for i, content := range files {
			p := filepath.Join(dir, fmt.Sprintf("f%d", i))
			if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
				rt.Fatal(err)
			}
			if err := os.WriteFile(p, content, 0644); err != nil {
				rt.Fatal(err)
			}
		}

		before, err := (&Hasher{}).Hash(context.Background(), dir, nil)
		if err != nil {
			rt.Fatal(err)
		}

		changed := append([]byte(nil), files[victim]...)
		changed[offset] ^= 0xff
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%d", victim)), changed, 0644); err != nil {
			rt.Fatal(err)
		}

		after, err := (&Hasher{}).Hash(context.Background(), dir, nil)
		if err != nil {
			rt.Fatal(err)
		}
		if Aggregate(before) == Aggregate(after) {
			rt.Fatalf("flipping byte %d of f%d left the aggregate unchanged", offset, victim)
		}
	})
}

func TestDigestSetConcurrentAdd(t *testing.T) {
	set := NewDigestSet()
	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				set.Add(FileDigest{Path: fmt.Sprintf("%d/%d", i, j), Digest: digest.SHA256.FromString(fmt.Sprint(i, j))})
			}
		}()
	}
	for i := 0; i < 16; i++ {
		<-done
	}
	if set.Len() != 1600 {
		t.Errorf("Len = %d, want 1600", set.Len())
	}
}

func TestHashReaderIdentityFraming(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide.
	d1, err := HashReader("ab", strings.NewReader("c"))
	if err != nil {
		t.Fatal(err)
	}
	d2, err := HashReader("a", strings.NewReader("bc"))
	if err != nil {
		t.Fatal(err)
	}
	if d1 == d2 {
		t.Error("identity/content boundary is ambiguous")
	}
}
