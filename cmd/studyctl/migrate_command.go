package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"study-backend/internal/shared/storage/db"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, ctx, func(database *sql.DB) error {
				if err := db.RunMigrations(cmd.Context(), database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			})
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, ctx, func(database *sql.DB) error {
				return printVersion(cmd, database)
			})
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, ctx, func(database *sql.DB) error {
				if err := db.RollbackMigration(cmd.Context(), database); err != nil {
					return err
				}
				return printVersion(cmd, database)
			})
		},
	})

	return migrateCmd
}

func withDatabase(cmd *cobra.Command, ctx *commandContext, fn func(*sql.DB) error) error {
	cfg := ctx.config()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	database, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

func printVersion(cmd *cobra.Command, database *sql.DB) error {
	version, err := db.MigrationVersion(cmd.Context(), database)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
	return nil
}
