package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"grunnlag/internal/platform/config"
	"grunnlag/internal/platform/logger"
	"grunnlag/internal/platform/postgres"
	"grunnlag/internal/platform/postgres/migrations"
)

func newMigrateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Long:  "Applies every embedded migration in name order. Migrations are idempotent, so re-running is safe.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				for _, name := range migrations.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return runMigrate(cmd)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print migration names without applying them")
	return cmd
}

func runMigrate(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	cfg.Database.MigrateOnStart = true
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	defer db.Close()

	log.InfoContext(ctx, "migrations applied", "count", len(migrations.Names()))
	return nil
}
