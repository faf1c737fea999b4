package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/garrettladley/csverify/internal/migrations"
	"github.com/garrettladley/csverify/internal/migrations/postgres"
	"github.com/garrettladley/csverify/internal/paths"
	"github.com/garrettladley/csverify/internal/storage"
)

const envDatabaseURL = "DATABASE_URL"

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending receipt store migrations",
		Long: "Applies the Postgres migrations when --database-url (or " + envDatabaseURL + ") is set,\n" +
			"otherwise the local history migrations.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if databaseURL != "" {
				pool, err := pgxpool.New(ctx, databaseURL)
				if err != nil {
					return fmt.Errorf("connect: %w", err)
				}
				defer pool.Close()

				if err := postgres.Apply(ctx, pool); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "Postgres migrations applied successfully")
				return nil
			}

			dbPath, err := paths.DB()
			if err != nil {
				return err
			}

			// opening the store applies pending migrations
			store, err := storage.OpenSQLite(ctx, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			names, err := migrations.Names()
			if err != nil {
				return err
			}
			for _, name := range names {
				_, _ = fmt.Fprintf(out, "  %s\n", name)
			}
			_, _ = fmt.Fprintf(out, "Migrations applied successfully (%s)\n", dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", envOr(envDatabaseURL, ""), "Postgres connection string")

	return cmd
}
