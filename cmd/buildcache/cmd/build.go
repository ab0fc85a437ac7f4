package cmd

import (
	"os"

	"github.com/bianoble/buildcache/internal/builder"
	"github.com/bianoble/buildcache/internal/engine"
	"github.com/bianoble/buildcache/internal/replace"
	"github.com/spf13/cobra"
)

var (
	buildForce  bool
	buildDocker string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Restore, build, replace and save in one step",
	Long: `Runs the whole caching pipeline around 'docker buildx build':

  1. compute the cache key
  2. restore the exact or newest prefix-matching cache
  3. build, reading the restored cache and writing a fresh one
  4. replace the restored cache with the fresh one
  5. save it under the new key

An exact key match skips the build unless --force is given. A failed build
exits non-zero. Problems in steps 4 and 5 are reported as warnings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := lr.Config
		root, err := projectRoot()
		if err != nil {
			return err
		}
		st, err := newStore(cfg, root)
		if err != nil {
			return err
		}

		eng := &engine.RunEngine{
			Store: st,
			Builder: &builder.Buildx{
				Binary: buildDocker,
				Stdout: os.Stdout,
				Stderr: os.Stderr,
			},
			Replacer:    replace.New(),
			ProjectRoot: root,
			Skip:        ownPaths(),
		}

		result, err := eng.Run(cmd.Context(), *cfg, engine.RunOptions{Force: buildForce})
		if result != nil {
			for _, w := range result.Warnings {
				warnf("%s", w)
			}
		}
		if err != nil {
			return err
		}

		info("key: %s", result.Key)
		switch {
		case result.ExactHit && !result.Built:
			info("Cache hit; build skipped.")
		case result.Saved:
			info("Built and saved.")
		case result.Built:
			info("Built; cache not saved.")
		}
		if result.RestoredKey != "" {
			detail("restored from %s", result.RestoredKey)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "build even when the exact key is cached")
	buildCmd.Flags().StringVar(&buildDocker, "docker", "docker", "docker CLI binary")
	rootCmd.AddCommand(buildCmd)
}
