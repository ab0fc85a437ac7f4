package cmd

import (
	"github.com/bianoble/buildcache/internal/engine"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var pruneDryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Evict old and least recently used cache entries",
	Long: `Removes store entries older than cache.max_age, then evicts the least
recently used entries until the store fits within cache.max_size.
Use --dry-run to see what would be removed without acting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lr, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}
		st, err := newStore(lr.Config, root)
		if err != nil {
			return err
		}

		result, err := engine.Prune(cmd.Context(), *lr.Config, st, pruneDryRun)
		if err != nil {
			return err
		}

		if pruneDryRun {
			info("Dry run — no entries removed.")
		}

		if len(result.Expired)+len(result.Evicted) == 0 {
			info("Nothing to prune.")
			return nil
		}

		for _, e := range result.Expired {
			info("  expired  %s  %s", e.Key, units.HumanSize(float64(e.Size)))
		}
		for _, e := range result.Evicted {
			info("  evicted  %s  %s", e.Key, units.HumanSize(float64(e.Size)))
		}
		info("\nPruned %d entries; %s remaining.",
			len(result.Expired)+len(result.Evicted), units.HumanSize(float64(result.Remaining)))
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be removed without acting")
	rootCmd.AddCommand(pruneCmd)
}
