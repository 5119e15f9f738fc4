package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philly/school-finance/backend/internal/platform/seeder"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load staff accounts and fee schedules from a fixtures file",
	Long: `Load staff accounts and fee schedules from a YAML fixtures file.

Existing staff (matched by email) are left untouched; fee schedules are
upserted per grade and school year, so the command can be re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtures, err := seeder.LoadFixtures(seedFile)
		if err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}

		ctx := cmd.Context()
		_, log, pool, cleanup, err := connect(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		results, err := seeder.NewOrchestrator(log, pool, seeder.FromFixtures(fixtures)).RunAll(ctx)
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d rows\n", r.Name, r.Rows)
		}
		return err
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", seeder.DefaultFixturesPath, "fixtures file")
}
