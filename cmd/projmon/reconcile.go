package main

import (
	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	var dryRun, asJSON bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Mirror platform projects into the snapshot store",
		Long: `Read every platform project, apply the lifecycle policy, assign missing
designated contacts and write the changes to the snapshot store.

Examples:
  projmon reconcile
  projmon reconcile --dry-run
  projmon reconcile --dry-run --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, appOptions{needSource: true})
			if err != nil {
				return err
			}
			defer a.Close()

			r := a.reconciler()
			if dryRun {
				plan, err := r.Plan(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), plan)
				}
				printPlan(cmd.OutOrStdout(), plan)
				return nil
			}

			res, err := r.Run(ctx)
			printResult(cmd.OutOrStdout(), res)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would change without writing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the dry-run plan as JSON")
	return cmd
}
