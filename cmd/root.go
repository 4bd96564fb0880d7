package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/click2vector/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "click2vector",
	Short: "Collect map points and export them as vector data",
	Long:  "Serves a browser map for collecting named points by click, spreadsheet import, or typed coordinates, and exports the collection as GeoJSON, Shapefile, or FlatGeobuf.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
