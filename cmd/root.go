package cmd

import (
	"os"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
)

var (
	flagDataDir string
	flagConfig  string
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "afr",
	Short: "Local, offline file-recommendation engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := zap.NewProduction()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return logger.Sync()
		}
		return nil
	},
}

// Execute runs the CLI. Kept from the teacher's Execute/os.Exit(1) shape.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (db + ANN index); overrides data_dir from config (default .afr)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to config.yaml")
}
