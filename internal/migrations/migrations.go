// Package migrations applies the local SQLite schema used by the CLI history.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply runs every embedded migration that has not been recorded yet, in
// file name order. Each file and its history row commit together.
func Apply(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating migrations history table: %w", err)
	}

	names, err := Names()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := applyOne(ctx, db, name); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the embedded migration files in apply order.
func Names() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

func applyOne(ctx context.Context, db *sql.DB, name string) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations_history WHERE name = ?", name).Scan(&count); err != nil {
		return fmt.Errorf("checking if migration applied: %w", err)
	}
	if count > 0 {
		return tx.Commit()
	}

	content, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", name, err)
	}

	for stmt := range strings.SplitSeq(string(content), ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations_history (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}
