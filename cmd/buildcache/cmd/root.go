package cmd

import (
	"fmt"
	"os"

	"github.com/containerd/log"
	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath   string
	manifestPath string
	logFormat    string
	verbose      bool
	quiet        bool
	noInherit    bool
)

var rootCmd = &cobra.Command{
	Use:   "buildcache",
	Short: "Content-addressed layer caching for container builds",
	Long: `buildcache derives a deterministic cache key from a container build context,
restores the newest matching layer cache from a local store, runs the build,
and swaps the freshly written cache into place so stale layers never pile up.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("buildcache %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "buildcache.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "buildcache.manifest.yaml", "path to the per-file digest manifest")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noInherit, "no-inherit", false, "ignore system and user config layers")

	rootCmd.AddCommand(versionCmd)
}

// setupLogging maps the output flags onto the process logger.
func setupLogging() error {
	level := "warn"
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	if err := log.SetLevel(level); err != nil {
		return err
	}

	switch logFormat {
	case "text":
		return log.SetFormat(log.TextFormat)
	case "json":
		return log.SetFormat(log.JSONFormat)
	default:
		return fmt.Errorf("unknown log format %q (use text or json)", logFormat)
	}
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
