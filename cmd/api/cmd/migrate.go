package cmd

import (
	"github.com/spf13/cobra"

	"github.com/philly/school-finance/backend/internal/platform/postgres"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending schema and job queue migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, log, pool, cleanup, err := connect(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := postgres.MigrateUp(config.DatabaseURL, config.MigrationsPath); err != nil {
			return err
		}
		if err := postgres.MigrateJobs(ctx, pool); err != nil {
			return err
		}
		log.Info(ctx, "migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, log, _, cleanup, err := connect(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := postgres.MigrateDown(config.DatabaseURL, config.MigrationsPath, migrateSteps); err != nil {
			return err
		}
		log.Info(ctx, "migrations rolled back", "steps", migrateSteps)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
