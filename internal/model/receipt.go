package model

import "math/big"

// Receipt is the execution outcome of a single transaction
type Receipt struct {
	TransactionHash   string   `json:"transaction_hash"`
	BlockNumber       uint64   `json:"block_number"`
	BlockHash         string   `json:"block_hash"`
	From              string   `json:"from"`
	To                string   `json:"to,omitempty"`
	Status            bool     `json:"status"`
	GasUsed           uint64   `json:"gas_used"`
	CumulativeGasUsed uint64   `json:"cumulative_gas_used"`
	EffectiveGasPrice *big.Int `json:"effective_gas_price,omitempty"`
	ContractAddress   string   `json:"contract_address,omitempty"`
	LogCount          int      `json:"log_count"`
	GasUsedForL1      *uint64  `json:"gas_used_for_l1,omitempty"`
}
