package cmd

import (
	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/engine"
	"github.com/spf13/cobra"
)

var saveKey string

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the build cache directory to the store",
	Long: `Archives the cache directory and stores it under the current key.
Nothing is uploaded if the key is already stored or the directory is empty.`,
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

		key := saveKey
		if key == "" {
			kr, err := (&engine.KeyEngine{ProjectRoot: root, Skip: ownPaths()}).Compute(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			key = kr.Key
		}

		st, err := newStore(cfg, root)
		if err != nil {
			return err
		}

		eng := &engine.SaveEngine{Store: st}
		result, err := eng.Save(cmd.Context(), key, config.ResolvePath(root, cfg.Cache.Dir))
		if err != nil {
			return err
		}

		if result.Saved {
			info("Saved %s", key)
		} else {
			info("Not saved: %s", result.Reason)
		}
		return nil
	},
}

func init() {
	saveCmd.Flags().StringVar(&saveKey, "key", "", "key to save under (default: computed from the inputs)")
	rootCmd.AddCommand(saveCmd)
}
