package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for the HTTP API and MCP",
	}

	var description string
	addCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Issue a bearer token acting as a platform user",
		Long: `Issue a bearer token acting as a platform user. The token is printed once
and only its hash is stored.

Examples:
  projmon apikey add alice --description "laptop"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.apiKeys.Create(cmd.Context(), args[0], description)
			if err != nil {
				return fmt.Errorf("create api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "note stored with the key")

	cmd.AddCommand(addCmd)
	return cmd
}
