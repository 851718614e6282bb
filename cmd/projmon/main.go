// Command projmon reconciles platform projects into the snapshot store,
// emails designated contacts and serves the contact API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "projmon",
		Short:         "Project lifecycle monitor",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				return os.Setenv("PROJMON_CONFIG_PATH", configPath)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides PROJMON_CONFIG_PATH)")

	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newNotifyCmd())
	rootCmd.AddCommand(newCycleCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newAPIKeyCmd())

	return rootCmd
}
