package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bianoble/buildcache/internal/cachekey"
	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// Load reads, defaults and validates a single buildcache.yaml file.
func Load(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

func parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	if err := cachekey.ValidatePrefix(cfg.KeyPrefix); err != nil {
		errs = append(errs, fmt.Sprintf("key_prefix: %v", err))
	}

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Sprintf("workers: must be >= 0, got %d", cfg.Workers))
	}

	seen := make(map[string]bool)
	for i, f := range cfg.Files {
		switch {
		case strings.TrimSpace(f) == "":
			errs = append(errs, fmt.Sprintf("files[%d]: path is empty", i))
		case seen[f]:
			errs = append(errs, fmt.Sprintf("files[%d]: duplicate path '%s'", i, f))
		default:
			seen[f] = true
		}
	}

	for i, p := range cfg.Exclude {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("exclude[%d]: pattern is empty", i))
		}
	}

	errs = append(errs, validateCache(cfg.Cache)...)

	for i, p := range cfg.Build.Platforms {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Sprintf("build.platforms[%d]: platform is empty", i))
		}
	}

	return errs
}

func validateCache(c Cache) []string {
	var errs []string

	if c.Dir == "" {
		errs = append(errs, "cache.dir: is required")
	}
	if c.FreshDir == "" {
		errs = append(errs, "cache.fresh_dir: is required")
	}
	if c.Dir != "" && c.Dir == c.FreshDir {
		errs = append(errs, "cache.fresh_dir: must differ from cache.dir — the build writes a new cache that replaces the restored one")
	}
	if c.MaxSize != "" {
		if _, err := units.FromHumanSize(c.MaxSize); err != nil {
			errs = append(errs, fmt.Sprintf("cache.max_size: invalid size '%s' — use a value like 10GB", c.MaxSize))
		}
	}
	if c.MaxAge != "" {
		if _, err := time.ParseDuration(c.MaxAge); err != nil {
			errs = append(errs, fmt.Sprintf("cache.max_age: invalid duration '%s' — use a value like 168h", c.MaxAge))
		}
	}

	return errs
}

// MaxSizeBytes returns the parsed store capacity, 0 if unset.
func (c Cache) MaxSizeBytes() (int64, error) {
	if c.MaxSize == "" {
		return 0, nil
	}
	return units.FromHumanSize(c.MaxSize)
}

// MaxAgeDuration returns the parsed store expiry, 0 if unset.
func (c Cache) MaxAgeDuration() (time.Duration, error) {
	if c.MaxAge == "" {
		return 0, nil
	}
	return time.ParseDuration(c.MaxAge)
}
