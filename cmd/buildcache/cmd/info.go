package cmd

import (
	"fmt"

	"github.com/bianoble/buildcache/internal/config"
	"github.com/bianoble/buildcache/internal/engine"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration and cache store information",
	Long: `Displays the buildcache version, the config chain, cache directories,
and the store location, size and limits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lr, _ := loadConfig() // ok if config doesn't exist
		var cfg *config.Config
		var layers []config.ConfigLayerInfo
		if lr != nil {
			cfg = lr.Config
			layers = lr.Layers
		}

		root, err := projectRoot()
		if err != nil {
			return err
		}
		st, err := newStore(cfg, root)
		if err != nil {
			return err
		}

		result, err := engine.Info(version, cfg, st, configPath, layers)
		if err != nil {
			return err
		}

		fmt.Printf("buildcache %s\n", result.Version)

		if len(result.ConfigChain) > 1 {
			fmt.Println("  config chain:")
			for _, layer := range result.ConfigChain {
				status := "not found"
				if layer.Loaded {
					status = "loaded"
				}
				fmt.Printf("    %-10s %s (%s)\n", layer.Level+":", layer.Path, status)
			}
		} else {
			fmt.Printf("  config:        %s\n", result.ConfigPath)
		}

		if cfg != nil {
			fmt.Printf("  key prefix:    %s\n", result.KeyPrefix)
			fmt.Printf("  cache dir:     %s\n", result.CacheDir)
			fmt.Printf("  fresh dir:     %s\n", result.FreshDir)
		}
		fmt.Printf("  store:         %s\n", result.StoreDir)
		fmt.Printf("  entries:       %d\n", result.Entries)
		fmt.Printf("  store size:    %s\n", storeUsage(result.StoreSize, result.MaxSize))
		if result.MaxAge > 0 {
			fmt.Printf("  max age:       %s\n", result.MaxAge)
		}
		return nil
	},
}

// storeUsage formats size against an optional capacity.
func storeUsage(size, max int64) string {
	if max <= 0 {
		return units.HumanSize(float64(size))
	}
	return fmt.Sprintf("%s / %s", units.HumanSize(float64(size)), units.HumanSize(float64(max)))
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
