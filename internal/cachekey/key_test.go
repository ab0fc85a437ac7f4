package cachekey

import (
	"strings"
	"testing"

	digest "github.com/opencontainers/go-digest"
)

func TestKey(t *testing.T) {
	b, err := New("Linux-buildx-")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	agg := digest.SHA256.FromString("context")

	key := b.Key(agg)
	if key != "Linux-buildx-"+agg.Encoded() {
		t.Errorf("Key = %q", key)
	}
	if len(key) != len("Linux-buildx-")+64 {
		t.Errorf("unexpected key length %d", len(key))
	}
	if b.Key(agg) != key {
		t.Error("Key is not deterministic")
	}
}

func TestPrefixOnlyIsStrictPrefix(t *testing.T) {
	b, err := New("buildx-")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"", "a", "b", "long content"} {
		key := b.Key(digest.SHA256.FromString(s))
		if !strings.HasPrefix(key, b.PrefixOnly()) || key == b.PrefixOnly() {
			t.Errorf("PrefixOnly %q is not a strict prefix of %q", b.PrefixOnly(), key)
		}
	}
}

func TestDifferentDigestsDifferentKeys(t *testing.T) {
	b, _ := New("p-")
	if b.Key(digest.SHA256.FromString("x")) == b.Key(digest.SHA256.FromString("y")) {
		t.Error("distinct digests produced the same key")
	}
}

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"buildx-", false},
		{"Linux-buildx-", false},
		{"", true},
		{"a/b", true},
		{`a\b`, true},
		{"has space", true},
		{"tab\t", true},
	}
	for _, tt := range tests {
		_, err := New(tt.prefix)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
		}
	}
}
