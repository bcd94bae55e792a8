package service

import (
	"context"

	"github.com/purvik6062/nitro-explorer/internal/config"
	"github.com/purvik6062/nitro-explorer/internal/publisher"
	"go.uber.org/zap"
)

// HeadSubscriber reports the chain head and its updates.
type HeadSubscriber interface {
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	SubscribeToNewBlock(ctx context.Context) (<-chan uint64, error)
}

// Follower tracks the chain head and publishes every new block with its
// receipts.
type Follower struct {
	heads      HeadSubscriber
	explorer   *ExplorerService
	publisher  publisher.Publisher
	config     *config.FollowConfig
	logger     *zap.Logger
	cancelFunc context.CancelFunc
	done       chan struct{}
}

func NewFollower(
	heads HeadSubscriber,
	explorer *ExplorerService,
	publisher publisher.Publisher,
	cfg *config.FollowConfig,
	logger *zap.Logger,
) *Follower {
	return &Follower{
		heads:     heads,
		explorer:  explorer,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins following from follow.start_block, or from the block after
// the current head when no start block is configured.
func (f *Follower) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	f.cancelFunc = cancel

	var nextBlock uint64
	if f.config.StartBlock > 0 {
		nextBlock = f.config.StartBlock
	} else {
		latestBlock, err := f.heads.GetLatestBlockNumber(ctx)
		if err != nil {
			cancel()
			return err
		}
		nextBlock = latestBlock + 1
	}

	f.logger.Info("Starting block follower",
		zap.Uint64("next_block", nextBlock))

	newBlocks, err := f.heads.SubscribeToNewBlock(ctx)
	if err != nil {
		cancel()
		return err
	}

	f.logger.Debug("Subscribe to new head successful")

	go func() {
		defer close(f.done)
		f.followChain(ctx, nextBlock, newBlocks)
	}()

	return nil
}

// Stop cancels the follower and waits for the loop to exit.
func (f *Follower) Stop() {
	if f.cancelFunc != nil {
		f.cancelFunc()
		<-f.done
	}
}

func (f *Follower) followChain(
	ctx context.Context,
	nextBlock uint64,
	newBlocks <-chan uint64,
) {
	maxRange := f.config.MaxBlockRange
	if maxRange == 0 {
		maxRange = DefaultPageSize
	}

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Stopping block follower")
			return

		case blockNumber, ok := <-newBlocks:
			if !ok {
				f.logger.Warn("New blocks channel closed")
				return
			}
			f.logger.Debug("new block head received",
				zap.Uint64("block", blockNumber))
			if blockNumber < nextBlock {
				continue
			}

			f.logger.Info("Processing new blocks",
				zap.Uint64("from", nextBlock),
				zap.Uint64("to", blockNumber))

			for start := nextBlock; start <= blockNumber; start += maxRange {
				if ctx.Err() != nil {
					f.logger.Info("Stopping block follower")
					return
				}
				end := min(start+maxRange-1, blockNumber)

				err := f.publishRange(ctx, start, end)
				if err != nil {
					publishFailures.Inc()
					f.logger.Error("Failed to publish block range",
						zap.Uint64("from", start),
						zap.Uint64("to", end),
						zap.Error(err))
				}
			}
			nextBlock = blockNumber + 1
		}
	}
}

func (f *Follower) publishRange(ctx context.Context, start, end uint64) error {
	numbers := make([]uint64, 0, end-start+1)
	for n := start; n <= end; n++ {
		numbers = append(numbers, n)
	}

	blocks, receipts, err := f.explorer.FetchBlocks(ctx, numbers)
	if err != nil {
		return err
	}

	if err := f.publisher.PublishBlocks(ctx, blocks, receipts); err != nil {
		return err
	}

	blocksPublished.Add(len(blocks))
	f.logger.Debug("Published block range",
		zap.Uint64("from", start),
		zap.Uint64("to", end),
		zap.Int("receipts", len(receipts)))

	return nil
}
