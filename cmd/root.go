package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "holidaycheck",
	Short: "Location-aware Australian public holiday resolution",
	Long:  "Resolves employee addresses to local government areas and produces the authoritative public holiday list for each, including regional substitutions.",
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
