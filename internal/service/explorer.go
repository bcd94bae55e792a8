package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/purvik6062/nitro-explorer/internal/config"
	"github.com/purvik6062/nitro-explorer/internal/connector"
	"github.com/purvik6062/nitro-explorer/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidPage    = errors.New("invalid page index")
	ErrInvalidHash    = errors.New("invalid transaction hash")
	ErrInvalidAddress = errors.New("invalid address")
)

// BlockReader is the part of the node API a page fetch needs.
type BlockReader interface {
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	GetBlockByNumber(ctx context.Context, number uint64, includeTransactions bool) (*model.Block, error)
	GetTransactionReceipt(ctx context.Context, hash string) (*model.Receipt, error)
}

// ChainReader adds the lookups behind the transaction and address views.
type ChainReader interface {
	BlockReader
	GetTransactionByHash(ctx context.Context, hash string) (*model.Transaction, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	GetNonce(ctx context.Context, address string) (uint64, error)
}

// ExplorerService answers explorer queries with live RPC calls. It holds no
// chain state between calls.
type ExplorerService struct {
	chain  ChainReader
	config *config.ExplorerConfig
	logger *zap.Logger
}

func NewExplorerService(chain ChainReader, cfg *config.ExplorerConfig, logger *zap.Logger) *ExplorerService {
	return &ExplorerService{
		chain:  chain,
		config: cfg,
		logger: logger,
	}
}

// PageSize returns the configured page size.
func (s *ExplorerService) PageSize() int {
	if s.config == nil || s.config.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.config.PageSize
}

// FetchPage re-reads the chain head, fetches the blocks of page pageIndex
// with their transactions, then the receipt of every full transaction.
// A pageSize <= 0 selects the configured page size. Any RPC failure
// aborts the whole page and is returned as a *connector.RPCError.
func (s *ExplorerService) FetchPage(ctx context.Context, pageIndex, pageSize int) (*model.Page, error) {
	if pageIndex < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, pageIndex)
	}
	if pageSize <= 0 {
		pageSize = s.PageSize()
	}

	startTime := time.Now()

	head, err := s.chain.GetLatestBlockNumber(ctx)
	if err != nil {
		pageFetchFailures.Inc()
		return nil, fmt.Errorf("failed to fetch chain head: %w", connector.WrapRPC("eth_blockNumber", err))
	}

	numbers := BlockRange(head, pageIndex, pageSize)

	s.logger.Debug("Fetching block page",
		zap.Int("page", pageIndex),
		zap.Int("size", pageSize),
		zap.Uint64("head", head),
		zap.Int("blocks", len(numbers)))

	blocks, receipts, err := s.FetchBlocks(ctx, numbers)
	if err != nil {
		pageFetchFailures.Inc()
		return nil, err
	}

	pagesFetched.Inc()
	pageFetchDuration.UpdateDuration(startTime)

	return &model.Page{
		Index:    pageIndex,
		Size:     pageSize,
		Head:     head,
		Blocks:   blocks,
		Receipts: receipts,
	}, nil
}

// FetchBlocks fetches the given blocks concurrently, keeping the order of
// numbers, then fetches the receipts of their full transactions
// concurrently. Receipts are keyed by the hash that requested them.
func (s *ExplorerService) FetchBlocks(ctx context.Context, numbers []uint64) ([]*model.Block, map[string]*model.Receipt, error) {
	blocks := make([]*model.Block, len(numbers))

	g, gctx := errgroup.WithContext(ctx)
	for i, number := range numbers {
		i, number := i, number
		g.Go(func() error {
			block, err := s.chain.GetBlockByNumber(gctx, number, true)
			if err != nil {
				return connector.WrapRPC("eth_getBlockByNumber", err)
			}
			if block == nil {
				return connector.WrapRPC("eth_getBlockByNumber", fmt.Errorf("block %d: %w", number, ethereum.NotFound))
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch blocks: %w", err)
	}

	var hashes []string
	for _, block := range blocks {
		hashes = append(hashes, block.TransactionHashes()...)
	}

	receipts := make([]*model.Receipt, len(hashes))

	g, gctx = errgroup.WithContext(ctx)
	for i, hash := range hashes {
		i, hash := i, hash
		g.Go(func() error {
			receipt, err := s.chain.GetTransactionReceipt(gctx, hash)
			if err != nil {
				return connector.WrapRPC("eth_getTransactionReceipt", err)
			}
			receipts[i] = receipt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch receipts: %w", err)
	}

	receiptsByHash := make(map[string]*model.Receipt, len(hashes))
	for i, hash := range hashes {
		receiptsByHash[hash] = receipts[i]
	}
	receiptsFetched.Add(len(hashes))

	return blocks, receiptsByHash, nil
}

func isTxHash(s string) bool {
	if len(s) != 2+2*common.HashLength {
		return false
	}
	_, err := hexutil.Decode(s)
	return err == nil
}

// GetTransaction fetches a transaction and its receipt.
func (s *ExplorerService) GetTransaction(ctx context.Context, hash string) (*model.TransactionDetails, error) {
	if !isTxHash(hash) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}

	var details model.TransactionDetails

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tx, err := s.chain.GetTransactionByHash(gctx, hash)
		if err != nil {
			return connector.WrapRPC("eth_getTransactionByHash", err)
		}
		details.Transaction = tx
		return nil
	})
	g.Go(func() error {
		receipt, err := s.chain.GetTransactionReceipt(gctx, hash)
		if err != nil {
			return connector.WrapRPC("eth_getTransactionReceipt", err)
		}
		details.Receipt = receipt
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &details, nil
}

// GetAccount fetches the balance and nonce of address.
func (s *ExplorerService) GetAccount(ctx context.Context, address string) (*model.Account, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	address = common.HexToAddress(address).Hex()

	account := &model.Account{Address: address}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := s.chain.GetBalance(gctx, address)
		if err != nil {
			return connector.WrapRPC("eth_getBalance", err)
		}
		account.Balance = balance
		return nil
	})
	g.Go(func() error {
		nonce, err := s.chain.GetNonce(gctx, address)
		if err != nil {
			return connector.WrapRPC("eth_getTransactionCount", err)
		}
		account.Nonce = nonce
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return account, nil
}

// DevAccountAddress derives the address of the configured dev account key.
func (s *ExplorerService) DevAccountAddress() (string, error) {
	key := config.DefaultDevAccountKey
	if s.config != nil && s.config.DevAccountKey != "" {
		key = s.config.DevAccountKey
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid dev account key: %w", err)
	}

	return crypto.PubkeyToAddress(privateKey.PublicKey).Hex(), nil
}

// DevAccount fetches the balance and nonce of the dev account.
func (s *ExplorerService) DevAccount(ctx context.Context) (*model.Account, error) {
	address, err := s.DevAccountAddress()
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, address)
}

// Ping checks that the node answers and returns its head.
func (s *ExplorerService) Ping(ctx context.Context) (uint64, error) {
	head, err := s.chain.GetLatestBlockNumber(ctx)
	if err != nil {
		return 0, connector.WrapRPC("eth_blockNumber", err)
	}
	return head, nil
}
