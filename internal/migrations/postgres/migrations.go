// Package postgres applies the receiver's Postgres schema.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationsDir = "sql"

// migrationLockID serializes concurrent Apply calls from several replicas.
const migrationLockID = 0x63737666

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply runs every embedded migration that has not been recorded yet, in
// file name order, each in its own transaction.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS migrations_history (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("creating migrations history table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	for _, name := range names {
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			return applyOne(ctx, tx, name)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func applyOne(ctx context.Context, tx pgx.Tx, name string) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("locking migrations: %w", err)
	}

	var applied bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM migrations_history WHERE name = $1)", name).Scan(&applied); err != nil {
		return fmt.Errorf("checking if migration applied: %w", err)
	}
	if applied {
		return nil
	}

	content, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", name, err)
	}

	for stmt := range strings.SplitSeq(string(content), ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	if _, err := tx.Exec(ctx, "INSERT INTO migrations_history (name) VALUES ($1)", name); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return nil
}
