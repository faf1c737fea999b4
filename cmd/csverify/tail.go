package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/garrettladley/csverify/internal/cli"
	"github.com/garrettladley/csverify/internal/cli/theme"
	"github.com/garrettladley/csverify/internal/client/sse"
	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xslog"
)

const (
	envServerURL     = "CSVERIFY_SERVER_URL"
	defaultServerURL = "http://localhost:8080"
)

func tailCmd() *cobra.Command {
	var (
		serverURL string
		since     time.Duration
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow deliveries accepted by a csverify server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			t := theme.New()

			level := xslog.LevelWarn
			if verbose {
				level = xslog.LevelDebug
			}
			logger := xslog.NewTextLogger(cmd.ErrOrStderr(), level)

			show := func(r storage.Receipt) {
				_, _ = lipgloss.Fprintln(out, cli.RenderReceipt(t, r))
			}

			if since > 0 {
				backlog, err := sse.NewPollClient(serverURL).Backlog(ctx, time.Now().Add(-since))
				if err != nil {
					return fmt.Errorf("failed to fetch backlog: %w", err)
				}
				for _, r := range backlog {
					show(r)
				}
			}

			err := sse.NewClient(serverURL, logger).Connect(ctx, show)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&serverURL, "server", envOr(envServerURL, defaultServerURL), "receiver base URL")
	flags.DurationVar(&since, "since", 0, "also print deliveries received within this window")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log stream events to stderr")

	return cmd
}
