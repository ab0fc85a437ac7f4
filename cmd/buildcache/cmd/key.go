package cmd

import (
	"fmt"
	"os"

	"github.com/bianoble/buildcache/internal/engine"
	"github.com/bianoble/buildcache/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	keyOutputFile    string
	keyWriteManifest bool
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Print the cache key for the current build inputs",
	Long: `Hashes the build context and the configured auxiliary files and prints the
resulting cache key.

When --output-file is set (default: $GITHUB_OUTPUT), key= and prefix= lines are
appended to it so later workflow steps can use them.
Use --write-manifest to record the per-file digests for 'buildcache diff'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lr, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		eng := &engine.KeyEngine{ProjectRoot: root, Skip: ownPaths()}
		result, err := eng.Compute(cmd.Context(), *lr.Config)
		if err != nil {
			return err
		}

		fmt.Println(result.Key)
		detail("aggregate: %s", result.Aggregate)
		detail("files:     %d", result.Files())

		if err := writeOutputs(keyOutputFile, "key", result.Key, "prefix", result.Prefix); err != nil {
			return err
		}

		if keyWriteManifest {
			if err := manifest.Save(manifestPath, result.Manifest); err != nil {
				return fmt.Errorf("writing manifest: %w", err)
			}
			detail("manifest:  %s", manifestPath)
		}
		return nil
	},
}

func init() {
	keyCmd.Flags().StringVar(&keyOutputFile, "output-file", os.Getenv("GITHUB_OUTPUT"), "append key=/prefix= lines to this file")
	keyCmd.Flags().BoolVar(&keyWriteManifest, "write-manifest", false, "record per-file digests to the manifest path")
	rootCmd.AddCommand(keyCmd)
}
