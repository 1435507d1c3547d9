package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var flagLimit int

var recommendCmd = &cobra.Command{
	Use:   "recommend <path>",
	Short: "Recommend files related to the given file",
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

		recs, err := a.Ranker.Recommend(cmd.Context(), path, flagLimit, time.Now())
		if err != nil {
			return err
		}
		for i, r := range recs {
			fmt.Printf("%2d. %-60s score=%.3f  semantic=%.3f recency=%.3f co-access=%.3f\n",
				i+1, r.File.Path, r.FinalScore, r.Semantic, r.Recency, r.CoAccess)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().IntVar(&flagLimit, "limit", 5, "number of recommendations (1-100)")
	rootCmd.AddCommand(recommendCmd)
}
