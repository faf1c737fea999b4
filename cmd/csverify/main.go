package main

import (
	"cmp"
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/garrettladley/csverify/internal/version"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "csverify",
		Short:        "Verify Contentstack webhook deliveries",
		Version:      version.Get(),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(regionsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(tailCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := fang.Execute(context.Background(), rootCmd, fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM)); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	return cmp.Or(os.Getenv(key), fallback)
}
