package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fundingdata/internal/config"
	"github.com/JonMunkholm/fundingdata/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fundctl",
		Short:         "Validate and load funding data returns",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newReingestCmd())
	cmd.AddCommand(newTablesCmd())
	cmd.AddCommand(newResetCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig reads .env when present, then the environment. Logs go to the
// command's stderr so stdout carries only results.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}
