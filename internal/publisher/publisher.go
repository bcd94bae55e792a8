package publisher

import (
	"context"

	"github.com/purvik6062/nitro-explorer/internal/model"
)

// Publisher defines the interface for streaming fetched blocks out of the explorer
type Publisher interface {
	// Connect establishes a connection with the sink
	Connect(ctx context.Context) error

	// Close closes the connection to the sink
	Close() error

	// PublishBlocks publishes blocks in order, each with the receipts of its transactions
	PublishBlocks(ctx context.Context, blocks []*model.Block, receipts map[string]*model.Receipt) error
}

// BlockMessage is the payload written for every published block
type BlockMessage struct {
	Type     string           `json:"type"`
	Block    *model.Block     `json:"block"`
	Receipts []*model.Receipt `json:"receipts"`
}

// NewBlockMessage collects the receipts belonging to block in transaction order.
func NewBlockMessage(block *model.Block, receipts map[string]*model.Receipt) BlockMessage {
	hashes := block.TransactionHashes()
	blockReceipts := make([]*model.Receipt, 0, len(hashes))
	for _, hash := range hashes {
		if receipt, ok := receipts[hash]; ok {
			blockReceipts = append(blockReceipts, receipt)
		}
	}

	return BlockMessage{
		Type:     "block",
		Block:    block,
		Receipts: blockReceipts,
	}
}
