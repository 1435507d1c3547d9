package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a directory tree and update the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Scanning %s...\n", root)
		rpt, err := a.Scanner.Scan(cmd.Context(), root)
		if rpt != nil {
			fmt.Printf("Added: %d  Updated: %d  Unchanged: %d  Tombstoned: %d\n",
				rpt.Added, rpt.Updated, rpt.Unchanged, rpt.Tombstoned)
			if len(rpt.Failures) > 0 {
				fmt.Printf("%d file(s) failed:\n", len(rpt.Failures))
				for _, f := range rpt.Failures {
					fmt.Printf("  %s: %v\n", f.Path, f.Err)
				}
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
