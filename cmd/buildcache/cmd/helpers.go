package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/store"
)

// loadConfig reads the layered config, with the project layer at configPath.
func loadConfig() (*config.LayeredResult, error) {
	res, err := config.LoadLayered(config.DiscoverOptions{
		ProjectPath: configPath,
		NoInherit:   noInherit || config.EnvNoInherit(),
	})
	if err != nil {
		return res, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	return res, nil
}

// projectRoot returns the directory containing the config file.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return filepath.Dir(abs), nil
}

// ownPaths lists files the CLI writes that must not feed the key.
func ownPaths() []string {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil
	}
	return []string{abs}
}

// newStore opens the store configured in cfg, or the default one.
func newStore(cfg *config.Config, root string) (*store.Dir, error) {
	dir := store.DefaultDir()
	if cfg != nil && cfg.Cache.Store != "" {
		dir = config.ResolvePath(root, cfg.Cache.Store)
	}
	return store.New(dir)
}

// writeOutputs appends name=value lines to path, the format GitHub Actions
// reads from $GITHUB_OUTPUT. An empty path is a no-op.
func writeOutputs(path string, pairs ...string) error {
	if path == "" {
		return nil
	}
	if len(pairs)%2 != 0 {
		return fmt.Errorf("writeOutputs: odd number of arguments")
	}

	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		fmt.Fprintf(&b, "%s=%s\n", pairs[i], pairs[i+1])
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	return f.Close()
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// warnf prints a warning to stderr.
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
