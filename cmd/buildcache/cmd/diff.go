package cmd

import (
	"fmt"

	"github.com/bianoble/buildcache/internal/engine"
	"github.com/bianoble/buildcache/internal/manifest"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Explain why the cache key changed",
	Long: `Recomputes the per-file digests and compares them with the manifest written
by 'buildcache key --write-manifest', listing added, removed and changed files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lr, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		recorded, err := manifest.Load(manifestPath)
		if err != nil {
			return fmt.Errorf("loading manifest %s: %w", manifestPath, err)
		}

		eng := &engine.DiffEngine{ProjectRoot: root, Skip: ownPaths()}
		result, err := eng.Diff(cmd.Context(), *lr.Config, recorded)
		if err != nil {
			return err
		}

		if !result.Changed() {
			info("Key unchanged: %s", result.Key)
			return nil
		}

		info("Key changed:")
		info("  recorded: %s", result.RecordedKey)
		info("  current:  %s", result.Key)
		if result.Delta.Empty() {
			info("\nNo file changes; the key prefix or hashing inputs differ.")
			return nil
		}
		for _, p := range result.Delta.Added {
			info("  added     %s", p)
		}
		for _, p := range result.Delta.Removed {
			info("  removed   %s", p)
		}
		for _, p := range result.Delta.Changed {
			info("  changed   %s", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
