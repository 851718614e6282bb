package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the snapshot database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			added.Fprintf(cmd.OutOrStdout(), "Snapshot schema up to date: %s\n", a.cfg.Snapshot.Path)
			return nil
		},
	}
}
