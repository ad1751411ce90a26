package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carteiralab/risk-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "risk-engine",
	Short: "Investment risk scoring pipeline",
	Long:  "Computes statistical risk indicators from historical series, classifies holdings on a 1-20 scale and checks compatibility against declared investor profiles.",
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
