package main

import (
	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/garrettladley/csverify/internal/cli"
	"github.com/garrettladley/csverify/internal/cli/theme"
)

func regionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List supported regions and their signing-key URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := lipgloss.Fprintln(cmd.OutOrStdout(), cli.RenderRegions(theme.New()))
			return err
		},
	}
}
