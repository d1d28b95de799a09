package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fundingdata/internal/application"
	"github.com/JonMunkholm/fundingdata/internal/ingest"
)

func newTablesCmd() *cobra.Command {
	var counts bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the canonical tables in load order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := ingest.New(nil, ingest.Options{})
			if err != nil {
				return err
			}

			var rows func(table string) (int, error)
			if counts {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				db, err := application.OpenStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				rows = func(table string) (int, error) { return db.CountRows(cmd.Context(), table) }
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if counts {
				fmt.Fprintln(tw, "TABLE\tDATABASE TABLE\tROWS")
			} else {
				fmt.Fprintln(tw, "TABLE\tDATABASE TABLE")
			}
			for _, def := range svc.Registry().Tables() {
				if rows == nil {
					fmt.Fprintf(tw, "%s\t%s\n", def.Name, def.DBTable)
					continue
				}
				n, err := rows(def.DBTable)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\n", def.Name, def.DBTable, n)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&counts, "counts", false, "include row counts from the database")
	return cmd
}
