package model

import (
	"math/big"
	"time"
)

// BlockTransaction is one entry of a block's transaction list. Tx is nil
// when the node returned only the hash.
type BlockTransaction struct {
	Hash string       `json:"hash"`
	Tx   *Transaction `json:"tx,omitempty"`
}

// Full reports whether the entry carries the transaction body.
func (b BlockTransaction) Full() bool {
	return b.Tx != nil
}

// Block represents an Arbitrum Nitro block
type Block struct {
	Number        uint64             `json:"number"`
	Hash          string             `json:"hash"`
	ParentHash    string             `json:"parent_hash"`
	Timestamp     time.Time          `json:"timestamp"`
	Miner         string             `json:"miner"`
	GasUsed       uint64             `json:"gas_used"`
	GasLimit      uint64             `json:"gas_limit"`
	BaseFee       *big.Int           `json:"base_fee,omitempty"`
	L1BlockNumber *uint64            `json:"l1_block_number,omitempty"`
	Transactions  []BlockTransaction `json:"transactions"`
}

// TransactionHashes returns the hashes of the full transaction entries in
// block order. Bare-hash entries are skipped.
func (b *Block) TransactionHashes() []string {
	hashes := make([]string, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		if tx.Full() {
			hashes = append(hashes, tx.Tx.Hash)
		}
	}
	return hashes
}
