package model

import (
	"math/big"
	"strings"
)

// Transaction represents a transaction embedded in a fetched block
type Transaction struct {
	Hash        string   `json:"hash"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	Index       uint64   `json:"index"`
	From        string   `json:"from"`
	To          string   `json:"to,omitempty"`
	Value       *big.Int `json:"value"`
	GasPrice    *big.Int `json:"gas_price"`
	Gas         uint64   `json:"gas"`
	Nonce       uint64   `json:"nonce"`
	Type        uint64   `json:"type"`
	InputData   string   `json:"input_data"`
}

// IsContractCreation reports whether the transaction has no recipient.
func (t *Transaction) IsContractCreation() bool {
	return t.To == ""
}

// MethodID returns the 4-byte function selector of the input data,
// 0x-prefixed, or an empty string for plain transfers.
func (t *Transaction) MethodID() string {
	data := strings.TrimPrefix(t.InputData, "0x")
	if len(data) < 8 {
		return ""
	}
	return "0x" + data[:8]
}

// TransactionDetails pairs a transaction with its receipt
type TransactionDetails struct {
	Transaction *Transaction `json:"transaction"`
	Receipt     *Receipt     `json:"receipt"`
}
