package config

import (
	"os"
	"path/filepath"
)

// Config represents the buildcache.yaml configuration file.
type Config struct {
	Version int `yaml:"version"`

	// Context is the root directory whose tree is hashed.
	Context string `yaml:"context,omitempty"`

	// Files is the explicit list of auxiliary inputs hashed alongside the
	// context, typically the Dockerfile and lockfiles.
	Files []string `yaml:"files,omitempty"`

	// Exclude and IgnoreFile remove context paths from the digest.
	Exclude    []string `yaml:"exclude,omitempty"`
	IgnoreFile string   `yaml:"ignore_file,omitempty"`

	KeyPrefix string `yaml:"key_prefix,omitempty"`
	Workers   int    `yaml:"workers,omitempty"`

	Cache Cache `yaml:"cache,omitempty"`
	Build Build `yaml:"build,omitempty"`
}

// Cache locates the layer cache directories and the local store.
type Cache struct {
	// Dir is the restored cache the build reads from.
	Dir string `yaml:"dir,omitempty"`

	// FreshDir is where the build writes its new cache.
	FreshDir string `yaml:"fresh_dir,omitempty"`

	// Store is the local store directory. Empty means the XDG cache dir.
	Store string `yaml:"store,omitempty"`

	MaxSize string `yaml:"max_size,omitempty"` // e.g. "10GB"
	MaxAge  string `yaml:"max_age,omitempty"`  // e.g. "168h"
}

// Build holds the parameters passed to the build engine.
type Build struct {
	File      string            `yaml:"file,omitempty"`
	Platforms []string          `yaml:"platforms,omitempty"`
	Tags      []string          `yaml:"tags,omitempty"`
	Args      map[string]string `yaml:"args,omitempty"`
	Push      *bool             `yaml:"push,omitempty"`
}

// PushEnabled reports whether the build should push its image. Unset means
// no.
func (b Build) PushEnabled() bool {
	return b.Push != nil && *b.Push
}

// Defaults.
const (
	DefaultKeyPrefix = "buildx-"
	DefaultMaxSize   = "10GB"
	DefaultMaxAge    = "168h"
)

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Context == "" {
		cfg.Context = "."
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(os.TempDir(), ".buildx-cache")
	}
	if cfg.Cache.FreshDir == "" {
		cfg.Cache.FreshDir = cfg.Cache.Dir + "-new"
	}
	if cfg.Cache.MaxSize == "" {
		cfg.Cache.MaxSize = DefaultMaxSize
	}
	if cfg.Cache.MaxAge == "" {
		cfg.Cache.MaxAge = DefaultMaxAge
	}
	if cfg.Build.File == "" {
		cfg.Build.File = "Dockerfile"
	}
}

// ResolvePath joins a config-relative path onto base. Absolute paths and
// empty values are returned unchanged.
func ResolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
