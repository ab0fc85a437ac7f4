package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default buildcache.yaml scaffold.
const initTemplate = `# buildcache configuration
version: 1

# Directory whose tree is hashed into the cache key.
context: .

# Extra inputs hashed alongside the context. Every file listed must exist.
files:
  - Dockerfile
  # - go.sum
  # - package-lock.json

# .dockerignore-style patterns removed from the context before hashing.
# exclude:
#   - "**/*.md"
#   - .git
# ignore_file: .dockerignore

key_prefix: buildx-
# workers: 4                  # parallel file hashing; 0 hashes serially

cache:
  dir: /tmp/.buildx-cache       # restored cache, read by the build
  fresh_dir: /tmp/.buildx-cache-new  # written by the build, then swapped in
  # store: .buildcache          # default: $XDG_CACHE_HOME/buildcache; never hashed
  max_size: 10GB
  max_age: 168h

build:
  file: Dockerfile
  # platforms: [linux/amd64, linux/arm64]
  # tags: [example/app:latest]
  # args:
  #   GO_VERSION: "1.25"
  # push: false
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter buildcache.yaml configuration",
	Long: `Creates a buildcache.yaml file in the current directory with a commented
template covering the build context, cache directories and build options.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. List the files your build depends on under 'files'")
		info("  2. Run 'buildcache key' to see the cache key")
		info("  3. Run 'buildcache build' to build with caching")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
