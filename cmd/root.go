package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/plantwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "plantwatch",
	Short: "Production monitoring and OEE analytics for plant machines",
	Long:  "Reads production records from the plant service or a local database, renders KPI dashboards and analytics, drives model training and predictions, and watches fleet health.",
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
