package connector

import (
	"context"
	"math/big"

	"github.com/purvik6062/nitro-explorer/internal/model"
)

// BlockchainConnector defines the interface for reading chain data from a node
type BlockchainConnector interface {
	// Connect establishes a connection to the node
	Connect(ctx context.Context) error

	// Close closes the connection to the node
	Close() error

	// GetLatestBlockNumber retrieves the chain head
	GetLatestBlockNumber(ctx context.Context) (uint64, error)

	// GetBlockByNumber retrieves a block, with full transaction bodies
	// when includeTransactions is set and bare hashes otherwise
	GetBlockByNumber(ctx context.Context, number uint64, includeTransactions bool) (*model.Block, error)

	// GetTransactionByHash retrieves a single transaction
	GetTransactionByHash(ctx context.Context, hash string) (*model.Transaction, error)

	// GetTransactionReceipt retrieves the receipt of a mined transaction
	GetTransactionReceipt(ctx context.Context, hash string) (*model.Receipt, error)

	// GetBalance retrieves the balance in wei at the latest block
	GetBalance(ctx context.Context, address string) (*big.Int, error)

	// GetNonce retrieves the transaction count at the latest block
	GetNonce(ctx context.Context, address string) (uint64, error)

	// ChainID retrieves the chain id reported by the node
	ChainID(ctx context.Context) (*big.Int, error)

	// SubscribeToNewBlock starts watching the chain head.
	// It returns a channel that receives new head block numbers
	SubscribeToNewBlock(ctx context.Context) (<-chan uint64, error)
}
