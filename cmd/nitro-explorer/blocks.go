package main

import (
	"fmt"
	"time"

	"github.com/purvik6062/nitro-explorer/internal/display"
	"github.com/spf13/cobra"
)

func blocksCmd() *cobra.Command {
	var (
		page   int
		size   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List a page of recent blocks with their transactions",
		Long: `Fetch one page of blocks counting down from the chain head, together
with the receipts of their transactions.

Examples:
  nitro-explorer blocks
  nitro-explorer blocks --page 2
  nitro-explorer blocks --size 5 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "terminal" && format != "json" {
				return fmt.Errorf("unknown format %q (use terminal or json)", format)
			}

			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.explorer.FetchPage(cmd.Context(), page, size)
			if err != nil {
				return fmt.Errorf("failed to fetch blocks: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				display.DisableColors()
				return display.RenderJSON(out, result)
			}

			display.RenderPage(out, result, time.Now())
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page index, 0 is the newest page")
	cmd.Flags().IntVar(&size, "size", 0, "Blocks per page (default: explorer.page_size)")
	cmd.Flags().StringVar(&format, "format", "terminal", "Output format: terminal|json")

	return cmd
}
