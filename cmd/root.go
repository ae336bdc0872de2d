package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ncl-icb-analytics/cosd-extract/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cosd-extract",
	Short: "COSD HTML report extraction pipeline",
	Long:  "Extracts tabular data from COSD clinical-reporting HTML files, reconciles table and chart renderings into one schema, stamps provenance, and loads the result into the analytical store.",
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
