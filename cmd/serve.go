package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/httpapi"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Core API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv := httpapi.New(a, logger)
		fmt.Printf("listening on %s\n", flagAddr)
		return http.ListenAndServe(flagAddr, srv)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
