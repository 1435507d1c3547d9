package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive dashboard: scan a directory, then browse recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return tui.Run(a)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
