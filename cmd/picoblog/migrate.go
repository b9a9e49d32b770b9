package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"picoblog/internal/config"
	"picoblog/internal/database"
)

func newMigrateCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := database.Connect(ctx, (*cfg).DSN())
			if err != nil {
				slog.Error("failed to connect to database", "error", err)
				return err
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool); err != nil {
				slog.Error("failed to run migrations", "error", err)
				return err
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}

func newSeedCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample articles when the article table is empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := database.Connect(ctx, (*cfg).DSN())
			if err != nil {
				slog.Error("failed to connect to database", "error", err)
				return err
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool); err != nil {
				slog.Error("failed to run migrations", "error", err)
				return err
			}
			if err := database.Seed(ctx, pool); err != nil {
				slog.Error("failed to seed database", "error", err)
				return err
			}
			return nil
		},
	}
}
