package main

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/garrettladley/csverify/internal/cli"
	"github.com/garrettladley/csverify/internal/cli/theme"
	"github.com/garrettladley/csverify/internal/paths"
	"github.com/garrettladley/csverify/internal/storage"
)

const defaultHistoryLimit = 20

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List deliveries recorded with verify --record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if limit <= 0 || limit > storage.MaxListLimit {
				return fmt.Errorf("--limit must be between 1 and %d", storage.MaxListLimit)
			}

			dbPath, err := paths.DB()
			if err != nil {
				return err
			}

			store, err := storage.OpenSQLite(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer func() { _ = store.Close() }()

			receipts, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}

			_, err = lipgloss.Fprintln(cmd.OutOrStdout(), cli.RenderHistory(theme.New(), receipts))
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of receipts to show")

	return cmd
}
