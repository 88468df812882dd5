package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/pkg/config"
	"github.com/noah-isme/fleet-compliance-api/pkg/database"
	"github.com/noah-isme/fleet-compliance-api/pkg/database/migrations"
	"github.com/noah-isme/fleet-compliance-api/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(db *sqlx.DB, logr *zap.Logger) error {
				if err := migrations.MigrateUp(db.DB); err != nil {
					return err
				}
				status, err := migrations.CurrentStatus(db.DB)
				if err != nil {
					return err
				}
				logr.Info("migrations applied", zap.Uint("version", status.Current))
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", status.Current)
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Compare the schema version with the embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(db *sqlx.DB, _ *zap.Logger) error {
				status, err := migrations.CurrentStatus(db.DB)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeStatus(status))
				return status.Err()
			})
		},
	}

	cmd.AddCommand(up, status)
	return cmd
}

func describeStatus(s migrations.Status) string {
	line := fmt.Sprintf("current=%d latest=%d", s.Current, s.Latest)
	if s.Dirty {
		line += " dirty"
	}
	if err := s.Err(); err != nil {
		return line + ": " + err.Error()
	}
	return line + ": up to date"
}

func withDatabase(ctx context.Context, fn func(db *sqlx.DB, logr *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()
	return fn(db, logr)
}
