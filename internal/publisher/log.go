package publisher

import (
	"context"

	"github.com/purvik6062/nitro-explorer/internal/model"
	"go.uber.org/zap"
)

// LogPublisher writes one log line per block. It is used when Kafka is disabled.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (l *LogPublisher) Connect(ctx context.Context) error {
	return nil
}

func (l *LogPublisher) Close() error {
	return nil
}

func (l *LogPublisher) PublishBlocks(ctx context.Context, blocks []*model.Block, receipts map[string]*model.Receipt) error {
	for _, block := range blocks {
		msg := NewBlockMessage(block, receipts)

		failed := 0
		for _, r := range msg.Receipts {
			if !r.Status {
				failed++
			}
		}

		l.logger.Info("New block",
			zap.Uint64("block", block.Number),
			zap.String("hash", block.Hash),
			zap.Int("tx_count", len(block.Transactions)),
			zap.Int("failed_tx", failed),
			zap.Time("timestamp", block.Timestamp))
	}
	return nil
}
