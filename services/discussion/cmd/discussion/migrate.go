package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/discussion-platform/internal/platform/db"
	"github.com/example/discussion-platform/services/discussion/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply or inspect the database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{db.MigrateUp, db.MigrateDown, db.MigrateStatus},
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, _ := cmd.Flags().GetString("database-url")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		pool, err := db.Open(ctx, db.Options{DSN: dsn, MaxConns: 2})
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool, migrations.FS, args[0]); err != nil {
			return fmt.Errorf("migrate %s: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().String("database-url", os.Getenv("DATABASE_URL"), "postgres DSN, defaults to $DATABASE_URL")
	migrateCmd.Flags().Duration("timeout", time.Minute, "overall deadline for the migration run")
}
