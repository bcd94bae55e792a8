// Package display renders explorer results for the terminal.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/purvik6062/nitro-explorer/internal/format"
	"github.com/purvik6062/nitro-explorer/internal/model"
	"github.com/rodaine/table"
)

var (
	headerFmt = color.New(color.FgCyan, color.Underline).SprintfFunc()
	cyan      = color.New(color.FgCyan).SprintFunc()
	bold      = color.New(color.Bold).SprintFunc()
	green     = color.New(color.FgGreen).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
)

const rule = "═══════════════════════════════════════════════════════════════════════"

// DisableColors turns off ANSI colors, e.g. for JSON or piped output.
func DisableColors() {
	color.NoColor = true
}

func newTable(w io.Writer, headers ...interface{}) table.Table {
	return table.New(headers...).
		WithWriter(w).
		WithHeaderFormatter(headerFmt)
}

func status(receipt *model.Receipt) string {
	switch {
	case receipt == nil:
		return dim("unknown")
	case receipt.Status:
		return green("success")
	default:
		return red("failed")
	}
}

func recipient(tx *model.Transaction, receipt *model.Receipt) string {
	if !tx.IsContractCreation() {
		return format.ShortHash(tx.To)
	}
	if receipt != nil && receipt.ContractAddress != "" {
		return "create " + format.ShortHash(receipt.ContractAddress)
	}
	return "create"
}

// RenderPage prints the blocks of a page followed by their transactions.
func RenderPage(w io.Writer, page *model.Page, now time.Time) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("Blocks (page %d, head #%s)", page.Index, format.Number(page.Head))))
	fmt.Fprintln(w, rule)

	if len(page.Blocks) == 0 {
		fmt.Fprintf(w, "  %s\n\n", dim("no blocks on this page"))
		return
	}

	blocks := newTable(w, "Block", "Hash", "Age", "Txs", "Gas Used", "Base Fee")
	for _, block := range page.Blocks {
		blocks.AddRow(
			format.Number(block.Number),
			format.ShortHash(block.Hash),
			format.Age(block.Timestamp, now),
			len(block.Transactions),
			format.Number(block.GasUsed)+" ("+format.GasPercent(block.GasUsed, block.GasLimit)+")",
			format.Gwei(block.BaseFee),
		)
	}
	blocks.Print()
	fmt.Fprintln(w)

	if page.TransactionCount() == 0 {
		fmt.Fprintf(w, "  %s\n", dim("no transactions on this page"))
	} else {
		fmt.Fprintf(w, "%s\n", bold("Transactions"))
		txs := newTable(w, "Hash", "Block", "From", "To", "Value", "Gas Used", "Status")
		for _, block := range page.Blocks {
			for _, entry := range block.Transactions {
				if !entry.Full() {
					continue
				}
				tx := entry.Tx
				receipt := page.Receipts[tx.Hash]

				gasUsed := format.Missing
				if receipt != nil {
					gasUsed = format.Number(receipt.GasUsed)
				}

				txs.AddRow(
					format.ShortHash(tx.Hash),
					block.Number,
					format.ShortHash(tx.From),
					recipient(tx, receipt),
					format.Ether(tx.Value),
					gasUsed,
					status(receipt),
				)
			}
		}
		txs.Print()
	}

	fmt.Fprintln(w)
	if page.HasNext() {
		fmt.Fprintf(w, "  %s --page %d\n\n", dim("older blocks:"), page.Index+1)
	}
}

// RenderTransaction prints a transaction with its receipt.
func RenderTransaction(w io.Writer, details *model.TransactionDetails) {
	tx := details.Transaction
	receipt := details.Receipt

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", bold("Transaction"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s        %s\n", cyan("Hash:"), tx.Hash)
	fmt.Fprintf(w, "  %s      %s\n", cyan("Status:"), status(receipt))
	fmt.Fprintf(w, "  %s       %s (index %d)\n", cyan("Block:"), format.Number(tx.BlockNumber), tx.Index)
	fmt.Fprintf(w, "  %s        %s\n", cyan("From:"), tx.From)

	to := tx.To
	if tx.IsContractCreation() {
		to = "contract creation"
		if receipt != nil && receipt.ContractAddress != "" {
			to += " " + receipt.ContractAddress
		}
	}
	fmt.Fprintf(w, "  %s          %s\n", cyan("To:"), to)
	fmt.Fprintf(w, "  %s       %s\n", cyan("Value:"), format.Ether(tx.Value))
	fmt.Fprintf(w, "  %s   %s\n", cyan("Gas Price:"), format.Gwei(tx.GasPrice))
	fmt.Fprintf(w, "  %s   %s\n", cyan("Gas Limit:"), format.Number(tx.Gas))
	if receipt != nil {
		fmt.Fprintf(w, "  %s    %s\n", cyan("Gas Used:"), format.Number(receipt.GasUsed))
		if receipt.GasUsedForL1 != nil {
			fmt.Fprintf(w, "  %s %s\n", cyan("Gas for L1:"), format.Number(*receipt.GasUsedForL1))
		}
		fmt.Fprintf(w, "  %s        %d\n", cyan("Logs:"), receipt.LogCount)
	}
	fmt.Fprintf(w, "  %s       %d\n", cyan("Nonce:"), tx.Nonce)
	fmt.Fprintf(w, "  %s        0x%x\n", cyan("Type:"), tx.Type)
	if method := tx.MethodID(); method != "" {
		fmt.Fprintf(w, "  %s      %s\n", cyan("Method:"), method)
	}
	fmt.Fprintln(w)
}

// RenderAccount prints the balance and nonce of an account under title.
func RenderAccount(w io.Writer, title string, account *model.Account) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", bold(title))
	fmt.Fprintln(w, strings.Repeat("═", 55))
	fmt.Fprintf(w, "  %s  %s\n", cyan("Address:"), account.Address)
	fmt.Fprintf(w, "  %s  %s\n", cyan("Balance:"), format.Ether(account.Balance))
	fmt.Fprintf(w, "  %s    %d\n", cyan("Nonce:"), account.Nonce)
	fmt.Fprintln(w)
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
