// Package manifest reads, writes and compares recorded digest manifests.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/moby/sys/atomicwriter"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if errs := Validate(&m); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &m, nil
}

// Save writes a manifest atomically.
func Save(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := atomicwriter.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Manifest for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(m *Manifest) []string {
	var errs []string

	if m.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", m.Version))
	}
	if m.Key == "" {
		errs = append(errs, "'key' is required")
	}
	if m.Aggregate != "" {
		if err := m.Aggregate.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("aggregate: %v", err))
		}
	}

	for i, e := range m.Files {
		prefix := fmt.Sprintf("file[%d]", i)
		if e.Path != "" {
			prefix = fmt.Sprintf("file '%s'", e.Path)
		}
		if e.Path == "" {
			errs = append(errs, fmt.Sprintf("%s: 'path' is required", prefix))
		}
		if err := e.Digest.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
		}
	}

	return errs
}
