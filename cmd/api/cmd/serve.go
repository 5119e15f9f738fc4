package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philly/school-finance/backend/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and job workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, cleanup, err := server.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("initialize app: %w", err)
		}
		defer cleanup()

		return app.Run(ctx)
	},
}
