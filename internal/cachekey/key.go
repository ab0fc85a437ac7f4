// Package cachekey turns an aggregate digest into the externally published
// cache key.
package cachekey

import (
	"fmt"
	"strings"
	"unicode"

	digest "github.com/opencontainers/go-digest"
)

// Builder formats cache keys under one constant prefix.
// Keys are flat strings; the prefix carries no hierarchy beyond being a
// string prefix of every key it builds.
type Builder struct {
	prefix string
}

// New returns a Builder for prefix.
func New(prefix string) (Builder, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return Builder{}, err
	}
	return Builder{prefix: prefix}, nil
}

// Key returns prefix + the hex encoding of agg.
func (b Builder) Key(agg digest.Digest) string {
	return b.prefix + agg.Encoded()
}

// PrefixOnly returns the bare prefix, used for fallback restore lookups.
// A prefix hit may seed a warm cache but never justifies skipping a build.
func (b Builder) PrefixOnly() string {
	return b.prefix
}

// ValidatePrefix rejects prefixes that would not survive as a single token
// in a CI output file or a store file name.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("key prefix is empty")
	}
	if strings.ContainsAny(prefix, `/\`) {
		return fmt.Errorf("key prefix %q contains a path separator", prefix)
	}
	if strings.IndexFunc(prefix, unicode.IsSpace) >= 0 {
		return fmt.Errorf("key prefix %q contains whitespace", prefix)
	}
	return nil
}
