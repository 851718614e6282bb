package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Email designated contacts who have not been told yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			sent, err := a.dispatcher().DispatchPending(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Notified %d recipients\n", sent)
			return err
		},
	}
}
