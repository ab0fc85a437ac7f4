package engine

import (
	"time"

	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/store"
)

// ConfigLayerStatus describes a config layer's load status for display.
type ConfigLayerStatus struct {
	Level  string // "system", "user", "project"
	Path   string
	Loaded bool
}

// InfoResult holds tool information for the info command.
type InfoResult struct {
	Version     string
	ConfigPath  string
	KeyPrefix   string
	CacheDir    string
	FreshDir    string
	StoreDir    string
	ConfigChain []ConfigLayerStatus
	Entries     int
	StoreSize   int64
	MaxSize     int64
	MaxAge      time.Duration
}

// Info gathers configuration and store statistics.
func Info(version string, cfg *config.Config, st *store.Dir, configPath string, layers []config.ConfigLayerInfo) (*InfoResult, error) {
	r := &InfoResult{
		Version:    version,
		ConfigPath: configPath,
	}

	for _, l := range layers {
		r.ConfigChain = append(r.ConfigChain, ConfigLayerStatus{
			Level:  string(l.Level),
			Path:   l.Path,
			Loaded: l.Loaded,
		})
	}

	if cfg != nil {
		r.KeyPrefix = cfg.KeyPrefix
		r.CacheDir = cfg.Cache.Dir
		r.FreshDir = cfg.Cache.FreshDir
		var err error
		if r.MaxSize, err = cfg.Cache.MaxSizeBytes(); err != nil {
			return nil, err
		}
		if r.MaxAge, err = cfg.Cache.MaxAgeDuration(); err != nil {
			return nil, err
		}
	}

	if st != nil {
		r.StoreDir = st.Path()
		entries, err := st.Entries()
		if err != nil {
			return nil, err
		}
		r.Entries = len(entries)
		for _, e := range entries {
			r.StoreSize += e.Size
		}
	}

	return r, nil
}
