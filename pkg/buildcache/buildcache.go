// Package buildcache provides the public Go library API for buildcache.
//
// buildcache derives a deterministic cache key from a container build
// context, restores the newest matching layer cache from a store, runs the
// build and swaps the freshly written cache into place for the next run.
//
// # Basic Usage
//
//	client, err := buildcache.New(buildcache.Options{
//	    ConfigPath: "buildcache.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Compute the cache key for the current inputs
//	key, err := client.Key(ctx)
//
//	// Restore, build, replace and save in one step
//	result, err := client.Run(ctx, buildcache.RunOptions{})
package buildcache

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bianoble/buildcache/internal/builder"
	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/engine"
	"github.com/bianoble/buildcache/internal/manifest"
	"github.com/bianoble/buildcache/internal/replace"
	"github.com/bianoble/buildcache/internal/store"
)

// RunOptions configures a pipeline run.
type RunOptions = engine.RunOptions

// Builder runs a container build. The default is docker buildx.
type Builder = builder.Engine

// BuildRequest describes one build handed to a Builder.
type BuildRequest = builder.Request

// Keyer computes cache keys.
type Keyer interface {
	Key(ctx context.Context) (*KeyResult, error)
}

// Runner executes the full restore, build, replace and save pipeline.
type Runner interface {
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
}

// Options configures a buildcache client.
type Options struct {
	// ProjectRoot is the directory config paths are resolved against.
	// If empty, defaults to the directory containing ConfigPath.
	ProjectRoot string

	// ConfigPath is the path to the config file. Default: "buildcache.yaml".
	ConfigPath string

	// StoreDir overrides the store directory from the config.
	StoreDir string

	// ManifestPath is where the per-file digest manifest is kept. It is never
	// part of the key. Relative paths resolve against ProjectRoot.
	// Default: "buildcache.manifest.yaml".
	ManifestPath string

	// Builder overrides the build engine. Default: docker buildx.
	Builder Builder

	// NoInherit loads only the project config, skipping system and user layers.
	NoInherit bool

	// SystemConfigPath and UserConfigPath override the default layer
	// locations. Mainly useful in tests.
	SystemConfigPath string
	UserConfigPath   string
}

// Client is the main entry point for the buildcache library.
// It implements Keyer and Runner.
type Client struct {
	cfg         *config.Config
	layers      []config.ConfigLayerInfo
	store       *store.Dir
	builder     Builder
	projectRoot string
	configPath  string
	skip        []string
}

// New loads the layered configuration and opens the store.
func New(opts Options) (*Client, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = "buildcache.yaml"
	}

	root := opts.ProjectRoot
	if root == "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		root = filepath.Dir(abs)
	}

	res, err := config.LoadLayered(config.DiscoverOptions{
		ProjectPath:      opts.ConfigPath,
		SystemConfigPath: opts.SystemConfigPath,
		UserConfigPath:   opts.UserConfigPath,
		NoInherit:        opts.NoInherit || config.EnvNoInherit(),
	})
	if err != nil {
		return nil, err
	}

	storeDir := opts.StoreDir
	if storeDir == "" {
		storeDir = config.ResolvePath(root, res.Config.Cache.Store)
	}
	if storeDir == "" {
		storeDir = store.DefaultDir()
	}
	st, err := store.New(storeDir)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	b := opts.Builder
	if b == nil {
		b = &builder.Buildx{}
	}

	if opts.ManifestPath == "" {
		opts.ManifestPath = "buildcache.manifest.yaml"
	}

	return &Client{
		cfg:         res.Config,
		layers:      res.Layers,
		store:       st,
		builder:     b,
		projectRoot: root,
		configPath:  opts.ConfigPath,
		skip:        []string{st.Path(), config.ResolvePath(root, opts.ManifestPath)},
	}, nil
}

// Config returns the merged configuration.
func (c *Client) Config() config.Config {
	return *c.cfg
}

// Key computes the cache key for the current inputs.
func (c *Client) Key(ctx context.Context) (*KeyResult, error) {
	eng := &engine.KeyEngine{ProjectRoot: c.projectRoot, Skip: c.skip}
	return eng.Compute(ctx, *c.cfg)
}

// Restore seeds the configured cache directory for key.
func (c *Client) Restore(ctx context.Context, key, prefix string) (*RestoreResult, error) {
	eng := &engine.RestoreEngine{Store: c.store}
	return eng.Restore(ctx, key, prefix, c.cacheDir())
}

// Save uploads the configured cache directory under key.
func (c *Client) Save(ctx context.Context, key string) (*SaveResult, error) {
	eng := &engine.SaveEngine{Store: c.store}
	return eng.Save(ctx, key, c.cacheDir())
}

// Replace swaps the fresh cache directory into the place of the current one.
func (c *Client) Replace(ctx context.Context) error {
	return replace.New().Replace(ctx, c.cacheDir(), config.ResolvePath(c.projectRoot, c.cfg.Cache.FreshDir))
}

// Run executes the full pipeline.
func (c *Client) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	eng := &engine.RunEngine{
		Store:       c.store,
		Builder:     c.builder,
		Replacer:    replace.New(),
		ProjectRoot: c.projectRoot,
		Skip:        c.skip,
	}
	return eng.Run(ctx, *c.cfg, opts)
}

// Diff compares the current inputs to the manifest recorded at path.
func (c *Client) Diff(ctx context.Context, manifestPath string) (*DiffResult, error) {
	recorded, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	eng := &engine.DiffEngine{ProjectRoot: c.projectRoot, Skip: append([]string{manifestPath}, c.skip...)}
	return eng.Diff(ctx, *c.cfg, recorded)
}

// Prune applies the configured store limits.
func (c *Client) Prune(ctx context.Context, dryRun bool) (*PruneResult, error) {
	return engine.Prune(ctx, *c.cfg, c.store, dryRun)
}

// Info reports configuration and store statistics.
func (c *Client) Info(version string) (*InfoResult, error) {
	return engine.Info(version, c.cfg, c.store, c.configPath, c.layers)
}

func (c *Client) cacheDir() string {
	return config.ResolvePath(c.projectRoot, c.cfg.Cache.Dir)
}
