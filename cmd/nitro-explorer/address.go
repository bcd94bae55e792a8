package main

import (
	"fmt"

	"github.com/purvik6062/nitro-explorer/internal/display"
	"github.com/purvik6062/nitro-explorer/internal/model"
	"github.com/spf13/cobra"
)

func addressCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "address <address>",
		Short: "Show the balance and nonce of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.explorer.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch account: %w", err)
			}

			return renderAccount(cmd, format, "Account", account)
		},
	}

	cmd.Flags().StringVar(&format, "format", "terminal", "Output format: terminal|json")

	return cmd
}

func devAccountCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dev-account",
		Short: "Show the pre-funded dev account of the local node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.explorer.DevAccount(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch dev account: %w", err)
			}

			return renderAccount(cmd, format, "Dev Account", account)
		},
	}

	cmd.Flags().StringVar(&format, "format", "terminal", "Output format: terminal|json")

	return cmd
}

func renderAccount(cmd *cobra.Command, format, title string, account *model.Account) error {
	if format == "json" {
		display.DisableColors()
		return display.RenderJSON(cmd.OutOrStdout(), account)
	}
	display.RenderAccount(cmd.OutOrStdout(), title, account)
	return nil
}
