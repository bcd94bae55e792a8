package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/purvik6062/nitro-explorer/internal/config"
	"github.com/purvik6062/nitro-explorer/internal/model"
	"go.uber.org/zap"
)

// EthereumConnector implements the BlockchainConnector interface against
// a Nitro node's JSON-RPC endpoint
type EthereumConnector struct {
	config     *config.NodeConfig
	rpc        *rpc.Client
	client     *ethclient.Client
	wsclient   *ethclient.Client
	logger     *zap.Logger
	cancelFunc context.CancelFunc
}

// NewEthereumConnector creates a new connector; call Connect before use
func NewEthereumConnector(cfg *config.NodeConfig, logger *zap.Logger) *EthereumConnector {
	return &EthereumConnector{
		config: cfg,
		logger: logger,
	}
}

// NewEthereumConnectorWithClient creates a connector around an already
// dialed RPC client. WebSocket subscriptions are not available.
func NewEthereumConnectorWithClient(c *rpc.Client, cfg *config.NodeConfig, logger *zap.Logger) *EthereumConnector {
	return &EthereumConnector{
		config: cfg,
		rpc:    c,
		client: ethclient.NewClient(c),
		logger: logger,
	}
}

// Connect dials the HTTP endpoint and, when configured, the WebSocket endpoint
func (e *EthereumConnector) Connect(ctx context.Context) error {
	httpClient := &http.Client{
		Timeout: e.config.RequestTimeout,
	}

	rpcClient, err := rpc.DialOptions(ctx, e.config.RPCURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to connect to node: %w", err)
	}
	e.rpc = rpcClient
	e.client = ethclient.NewClient(rpcClient)

	if e.config.WebsocketURL != "" {
		e.wsclient, err = ethclient.DialContext(ctx, e.config.WebsocketURL)
		if err != nil {
			e.client.Close()
			return fmt.Errorf("failed to connect to node WebSocket: %w", err)
		}
	}

	e.logger.Info("Connected to node",
		zap.String("node_url", e.config.RPCURL),
		zap.String("websocket_url", e.config.WebsocketURL))

	return nil
}

// Close closes the connection to the node
func (e *EthereumConnector) Close() error {
	if e.cancelFunc != nil {
		e.cancelFunc()
	}

	if e.client != nil {
		e.client.Close()
	}

	if e.wsclient != nil {
		e.wsclient.Close()
	}

	e.logger.Info("Disconnected from node")
	return nil
}

// GetLatestBlockNumber retrieves the chain head
func (e *EthereumConnector) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	blockNumber, err := e.client.BlockNumber(ctx)
	if err != nil {
		return 0, WrapRPC("eth_blockNumber", err)
	}

	return blockNumber, nil
}

// callObject performs a call whose result is a single JSON object or null.
func (e *EthereumConnector) callObject(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	var raw json.RawMessage
	err := e.rpc.CallContext(ctx, &raw, method, args...)
	if err != nil {
		return WrapRPC(method, err)
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return WrapRPC(method, ethereum.NotFound)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return WrapRPC(method, fmt.Errorf("malformed result: %w", err))
	}
	return nil
}

// GetBlockByNumber retrieves a block by number and converts it to model.Block
func (e *EthereumConnector) GetBlockByNumber(ctx context.Context, number uint64, includeTransactions bool) (*model.Block, error) {
	var block rpcBlock
	err := e.callObject(ctx, &block, "eth_getBlockByNumber", hexutil.EncodeUint64(number), includeTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block %d: %w", number, err)
	}

	result, err := block.toModel()
	if err != nil {
		return nil, WrapRPC("eth_getBlockByNumber", err)
	}

	return result, nil
}

// GetTransactionByHash retrieves a transaction for the given hash
func (e *EthereumConnector) GetTransactionByHash(ctx context.Context, hash string) (*model.Transaction, error) {
	var tx rpcTransaction
	err := e.callObject(ctx, &tx, "eth_getTransactionByHash", common.HexToHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", hash, err)
	}

	return tx.toModel(), nil
}

// GetTransactionReceipt retrieves the receipt for the given transaction hash
func (e *EthereumConnector) GetTransactionReceipt(ctx context.Context, hash string) (*model.Receipt, error) {
	var receipt rpcReceipt
	err := e.callObject(ctx, &receipt, "eth_getTransactionReceipt", common.HexToHash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve receipt for transaction %s: %w", hash, err)
	}

	return receipt.toModel(), nil
}

// GetBalance retrieves the balance of address at the latest block
func (e *EthereumConnector) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	balance, err := e.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", address, WrapRPC("eth_getBalance", err))
	}

	return balance, nil
}

// GetNonce retrieves the transaction count of address at the latest block
func (e *EthereumConnector) GetNonce(ctx context.Context, address string) (uint64, error) {
	nonce, err := e.client.NonceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce of %s: %w", address, WrapRPC("eth_getTransactionCount", err))
	}

	return nonce, nil
}

// ChainID retrieves the chain id reported by the node
func (e *EthereumConnector) ChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return nil, WrapRPC("eth_chainId", err)
	}

	return chainID, nil
}

// SubscribeToNewBlock subscribes to new heads over WebSocket, or polls the
// head at the configured interval when no WebSocket endpoint is set
func (e *EthereumConnector) SubscribeToNewBlock(ctx context.Context) (<-chan uint64, error) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancelFunc = cancel

	if e.wsclient == nil {
		return e.pollNewBlocks(ctx), nil
	}

	headers := make(chan *types.Header)
	sub, err := e.wsclient.SubscribeNewHead(ctx, headers)
	if err != nil {
		cancel()
		return nil, WrapRPC("eth_subscribe", fmt.Errorf("failed to subscribe to new blocks: %w", err))
	}

	blockNumbers := make(chan uint64)

	go func() {
		defer close(blockNumbers)
		defer sub.Unsubscribe()

		for {
			select {
			case err := <-sub.Err():
				e.logger.Error("Subscription error", zap.Error(err))
				return

			case header := <-headers:
				blockNumber := header.Number.Uint64()
				e.logger.Debug("New block detected", zap.Uint64("block_number", blockNumber))

				select {
				case blockNumbers <- blockNumber:

				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return blockNumbers, nil
}

func (e *EthereumConnector) pollNewBlocks(ctx context.Context) <-chan uint64 {
	blockNumbers := make(chan uint64)

	go func() {
		defer close(blockNumbers)

		ticker := time.NewTicker(e.config.PollInterval)
		defer ticker.Stop()

		var last uint64
		seen := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				blockNumber, err := e.GetLatestBlockNumber(ctx)
				if err != nil {
					e.logger.Warn("Failed to poll chain head", zap.Error(err))
					continue
				}
				if seen && blockNumber <= last {
					continue
				}
				last, seen = blockNumber, true
				e.logger.Debug("New block detected", zap.Uint64("block_number", blockNumber))

				select {
				case blockNumbers <- blockNumber:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return blockNumbers
}
