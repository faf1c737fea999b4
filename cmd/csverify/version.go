package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garrettladley/csverify/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the csverify version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		},
	}
}
