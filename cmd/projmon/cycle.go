package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/projmon/internal/domain/reconcile"
)

func newCycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Reconcile, then notify (the daily job)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{needSource: true})
			if err != nil {
				return err
			}
			defer a.Close()

			res, sent, err := runCycle(cmd.Context(), a.reconciler(), a.dispatcher())
			printResult(cmd.OutOrStdout(), res)
			fmt.Fprintf(cmd.OutOrStdout(), "Notified %d recipients\n", sent)
			return err
		},
	}
}

type runner interface {
	Run(ctx context.Context) (reconcile.Result, error)
}

type dispatcher interface {
	DispatchPending(ctx context.Context) (int, error)
}

// runCycle reconciles and then notifies. Notification runs even when
// reconciliation fails so contacts assigned earlier still hear about it.
func runCycle(ctx context.Context, r runner, d dispatcher) (reconcile.Result, int, error) {
	res, runErr := r.Run(ctx)
	if runErr != nil {
		runErr = fmt.Errorf("reconcile: %w", runErr)
	}
	sent, notifyErr := d.DispatchPending(ctx)
	if notifyErr != nil {
		notifyErr = fmt.Errorf("notify: %w", notifyErr)
	}
	return res, sent, errors.Join(runErr, notifyErr)
}
