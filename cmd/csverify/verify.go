package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/garrettladley/csverify/internal/cli"
	"github.com/garrettladley/csverify/internal/cli/theme"
	"github.com/garrettladley/csverify/internal/paths"
	"github.com/garrettladley/csverify/internal/service/webhook"
	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xhttp"
	"github.com/garrettladley/csverify/internal/xslog"
	cswebhook "github.com/garrettladley/csverify/webhook"
)

type verifyFlags struct {
	signature       string
	region          string
	customRegionURL string
	timeout         time.Duration
	threshold       time.Duration
	noReplay        bool
	record          bool
	concurrency     int
	verbose         bool
}

func verifyCmd() *cobra.Command {
	var f verifyFlags

	cmd := &cobra.Command{
		Use:   "verify FILE...",
		Short: "Verify saved webhook bodies",
		Long: "Verifies each body file against the signing key of the chosen region.\n" +
			"The signature header is taken from --signature, or from FILE" + cli.SignatureSuffix + ".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			level := xslog.LevelWarn
			if f.verbose {
				level = xslog.LevelDebug
			}
			logger := xslog.NewTextLogger(cmd.ErrOrStderr(), level)
			ctx = xslog.WithLogger(ctx, logger)

			defaults, err := cswebhook.Resolve(cswebhook.DefaultConfig(), f.options(cmd))
			if err != nil {
				return err
			}

			targets, err := cli.Targets(args, f.signature)
			if err != nil {
				return err
			}

			store, closeStore, err := f.store(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			verifier := cswebhook.New(defaults,
				cswebhook.WithHTTPClient(xhttp.NewHTTPClient()),
				cswebhook.WithLogger(logger),
			)
			svc := webhook.NewProcessor(verifier, store)

			logger.DebugContext(ctx, "verifying deliveries",
				xslog.Count(len(targets)),
				xslog.URL(defaults.KeyURL()),
				slog.Bool("record", f.record),
			)

			results := cli.VerifyAll(ctx, svc, targets, f.concurrency)
			_, _ = lipgloss.Fprint(cmd.OutOrStdout(), cli.RenderResults(theme.New(), results))

			if failed := cli.Failed(results); failed > 0 {
				return fmt.Errorf("%d of %d deliveries failed verification", failed, len(results))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.signature, "signature", "s", "", "signature header value applied to every file")
	flags.StringVarP(&f.region, "region", "r", "", fmt.Sprintf("region code %v", cswebhook.Regions()))
	flags.StringVar(&f.customRegionURL, "custom-region-url", "", "signing-key URL overriding the region")
	flags.DurationVar(&f.timeout, "timeout", cswebhook.DefaultRequestTimeout, "signing-key request timeout")
	flags.DurationVar(&f.threshold, "threshold", cswebhook.DefaultReplayThreshold, "maximum accepted event age")
	flags.BoolVar(&f.noReplay, "no-replay", false, "skip the triggered_at age check")
	flags.BoolVar(&f.record, "record", false, "record verified deliveries in the local history")
	flags.IntVarP(&f.concurrency, "concurrency", "c", cli.DefaultConcurrency, "files verified at once")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "log key fetches to stderr")

	return cmd
}

// options returns the overrides for flags the user set.
func (f verifyFlags) options(cmd *cobra.Command) cswebhook.Options {
	var opts []cswebhook.Option
	flags := cmd.Flags()
	if flags.Changed("region") {
		opts = append(opts, cswebhook.WithRegion(cswebhook.Region(f.region)))
	}
	if flags.Changed("custom-region-url") {
		opts = append(opts, cswebhook.WithCustomRegionURL(f.customRegionURL))
	}
	if flags.Changed("timeout") {
		opts = append(opts, cswebhook.WithRequestTimeout(f.timeout))
	}
	if flags.Changed("threshold") {
		opts = append(opts, cswebhook.WithReplayThreshold(f.threshold))
	}
	if f.noReplay {
		opts = append(opts, cswebhook.WithReplayVerify(false))
	}
	return cswebhook.NewOptions(opts...)
}

// store returns the local history when --record is set, otherwise a
// throwaway in-memory store.
func (f verifyFlags) store(cmd *cobra.Command) (storage.ReceiptStore, func(), error) {
	if !f.record {
		m := storage.NewMemoryBackend()
		return m, func() { _ = m.Close() }, nil
	}

	dbPath, err := paths.DB()
	if err != nil {
		return nil, nil, err
	}

	s, err := storage.OpenSQLite(cmd.Context(), dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return s, func() {
		if err := s.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close history: %v\n", err)
		}
	}, nil
}
