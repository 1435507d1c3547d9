package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Activity tracking commands",
}

var activityLogCmd = &cobra.Command{
	Use:   "log <path>",
	Short: "Record an access to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.Store.GetFileByPath(cmd.Context(), path)
		if err != nil {
			return err
		}
		if f == nil {
			return apperr.New(apperr.NotFound, "path not registered: "+path)
		}

		summary, err := a.Activity.Log(cmd.Context(), f.ID, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("access_count_after=%d copairs_updated=%d\n", summary.AccessCountAfter, summary.CopairsUpdated)
		return nil
	},
}

func init() {
	activityCmd.AddCommand(activityLogCmd)
	rootCmd.AddCommand(activityCmd)
}
