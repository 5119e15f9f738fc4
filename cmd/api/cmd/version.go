package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philly/school-finance/backend/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), server.Version)
	},
}
