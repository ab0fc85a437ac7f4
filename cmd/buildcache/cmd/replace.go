package cmd

import (
	"github.com/bianoble/buildcache/internal/replace"
	"github.com/spf13/cobra"
)

var replaceCmd = &cobra.Command{
	Use:   "replace <current> <fresh>",
	Short: "Swap a freshly written cache directory into place",
	Long: `Deletes <current> and moves <fresh> into its place. Run this only after the
build that wrote <fresh> has succeeded.

If deleting <current> fails the command exits non-zero and nothing is moved.
If the move fails the command warns and exits zero: the next run simply starts
with a cold cache.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, fresh := args[0], args[1]

		err := replace.New().Replace(cmd.Context(), current, fresh)
		if replace.IsDegraded(err) {
			warnf("%v; continuing with a cold cache", err)
			return nil
		}
		if err != nil {
			return err
		}

		info("Replaced %s with %s", current, fresh)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replaceCmd)
}
