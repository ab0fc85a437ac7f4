package cmd

import (
	"os"
	"strconv"

	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/engine"
	"github.com/spf13/cobra"
)

var (
	restoreKey        string
	restoreOutputFile string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the build cache directory from the store",
	Long: `Restores the entry stored under the current key into the cache directory.
If there is no exact match, the most recent entry sharing the key prefix is
restored instead; the build must still run in that case.
On a miss the cache directory is left empty.

Writes cache-hit= and restored-key= to --output-file (default: $GITHUB_OUTPUT).`,
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

		key, prefix := restoreKey, cfg.KeyPrefix
		if key == "" {
			kr, err := (&engine.KeyEngine{ProjectRoot: root, Skip: ownPaths()}).Compute(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			key, prefix = kr.Key, kr.Prefix
		}

		st, err := newStore(cfg, root)
		if err != nil {
			return err
		}

		eng := &engine.RestoreEngine{Store: st}
		result, err := eng.Restore(cmd.Context(), key, prefix, config.ResolvePath(root, cfg.Cache.Dir))
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			warnf("%s", w)
		}

		switch {
		case result.ExactHit:
			info("Restored %s (exact match)", result.RestoredKey)
		case result.RestoredKey != "":
			info("Restored %s (prefix match for %s)", result.RestoredKey, key)
		default:
			info("No cache found for %s", key)
		}

		return writeOutputs(restoreOutputFile,
			"cache-hit", strconv.FormatBool(result.ExactHit),
			"restored-key", result.RestoredKey,
		)
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreKey, "key", "", "key to restore (default: computed from the inputs)")
	restoreCmd.Flags().StringVar(&restoreOutputFile, "output-file", os.Getenv("GITHUB_OUTPUT"), "append cache-hit=/restored-key= lines to this file")
	rootCmd.AddCommand(restoreCmd)
}
