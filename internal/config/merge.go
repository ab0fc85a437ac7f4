package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base.
//   - version: must agree if both declare it (non-zero); fatal error on mismatch
//   - scalars: overlay wins when set
//   - files, exclude, build.platforms, build.tags: concatenate, dropping repeats
//   - build.args: deep merge, overlay keys win
//   - build.push: overlay wins when set, so a later layer can turn it off
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := &Config{}

	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	result.Context = pick(base.Context, overlay.Context)
	result.IgnoreFile = pick(base.IgnoreFile, overlay.IgnoreFile)
	result.KeyPrefix = pick(base.KeyPrefix, overlay.KeyPrefix)
	result.Workers = base.Workers
	if overlay.Workers != 0 {
		result.Workers = overlay.Workers
	}

	result.Files = mergeList(base.Files, overlay.Files)
	result.Exclude = mergeList(base.Exclude, overlay.Exclude)

	result.Cache = Cache{
		Dir:      pick(base.Cache.Dir, overlay.Cache.Dir),
		FreshDir: pick(base.Cache.FreshDir, overlay.Cache.FreshDir),
		Store:    pick(base.Cache.Store, overlay.Cache.Store),
		MaxSize:  pick(base.Cache.MaxSize, overlay.Cache.MaxSize),
		MaxAge:   pick(base.Cache.MaxAge, overlay.Cache.MaxAge),
	}

	result.Build = Build{
		File:      pick(base.Build.File, overlay.Build.File),
		Platforms: mergeList(base.Build.Platforms, overlay.Build.Platforms),
		Tags:      mergeList(base.Build.Tags, overlay.Build.Tags),
		Args:      mergeArgs(base.Build.Args, overlay.Build.Args),
		Push:      pickBool(base.Build.Push, overlay.Build.Push),
	}

	return result, nil
}

// MergeAll merges multiple configs in order (lowest precedence first).
// Returns an error if any version mismatch is found.
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0 && overlay == 0:
		*out = 0 // neither declares; validation will catch this
	case base == 0:
		*out = overlay
	case overlay == 0:
		*out = base
	case base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d — all config layers must agree on version", base, overlay)
	}
	return nil
}

func pick(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickBool(base, overlay *bool) *bool {
	if overlay != nil {
		return overlay
	}
	return base
}

func mergeList(base, overlay []string) []string {
	if len(base) == 0 {
		return overlay
	}
	if len(overlay) == 0 {
		return base
	}

	seen := make(map[string]bool, len(base)+len(overlay))
	var result []string
	for _, list := range [][]string{base, overlay} {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

func mergeArgs(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}

	result := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range overlay {
		result[k] = v // overlay wins
	}
	return result
}
