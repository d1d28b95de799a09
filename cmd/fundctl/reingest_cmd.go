package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fundingdata/internal/application"
)

func newReingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reingest <submission-code>",
		Short: "Load a stored submission file again under its original submitter",
		Long: `Reingest reads the original workbook of a loaded submission from the
blob store and runs it through the ingest pipeline again, keeping the
submitting account and email recorded for it.

The blob backend must persist between runs (BLOB_BACKEND=fs or s3).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := application.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Service.Reingest(cmd.Context(), args[0])
			return report(cmd.OutOrStdout(), res, err)
		},
	}
}
