package main

import (
	"fmt"

	"github.com/purvik6062/nitro-explorer/internal/display"
	"github.com/spf13/cobra"
)

func txCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tx <hash>",
		Short: "Show a transaction and its receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			details, err := a.explorer.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch transaction: %w", err)
			}

			if format == "json" {
				display.DisableColors()
				return display.RenderJSON(cmd.OutOrStdout(), details)
			}

			display.RenderTransaction(cmd.OutOrStdout(), details)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "terminal", "Output format: terminal|json")

	return cmd
}
