package main

import (
	"fmt"
	"sort"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fundingdata/internal/admin"
	"github.com/JonMunkholm/fundingdata/internal/application"
	"github.com/JonMunkholm/fundingdata/internal/ingest"
)

func newResetCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset --yes",
		Short: "Delete every loaded submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("reset deletes all data; pass --yes to confirm")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := application.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := ingest.New(db, ingest.Options{})
			if err != nil {
				return err
			}
			removed, err := (&admin.Reset{DB: db, Registry: svc.Registry()}).All(cmd.Context())
			if err != nil {
				return err
			}

			tables := make([]string, 0, len(removed))
			for t := range removed {
				tables = append(tables, t)
			}
			sort.Strings(tables)
			for _, t := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows deleted\n", t, removed[t])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the reset")
	return cmd
}
