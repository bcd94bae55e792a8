package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/purvik6062/nitro-explorer/internal/config"
	"github.com/purvik6062/nitro-explorer/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher implements Publisher interface for Kafka
type KafkaPublisher struct {
	config *config.KafkaConfig
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher
func NewKafkaPublisher(cfg *config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		config: cfg,
		logger: logger,
	}
}

func (k *KafkaPublisher) Connect(ctx context.Context) error {
	k.writer = &kafka.Writer{
		Addr:         kafka.TCP(k.config.Brokers...),
		Topic:        k.config.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    k.config.BatchSize,
		BatchTimeout: time.Duration(k.config.BatchTimeout) * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	pingMsg := struct {
		Type    string    `json:"type"`
		Message string    `json:"message"`
		Time    time.Time `json:"time"`
	}{
		Type:    "ping",
		Message: "Nitro explorer follower startup",
		Time:    time.Now(),
	}

	pingMsgBytes, err := json.Marshal(pingMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal ping message: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("ping"),
		Value: pingMsgBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", k.config.Topic, err)
	}

	k.logger.Info("Connected to Kafka",
		zap.Strings("brokers", k.config.Brokers),
		zap.String("topic", k.config.Topic))

	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.writer != nil {
		err := k.writer.Close()
		if err != nil {
			return fmt.Errorf("failed to close Kafka connection: %w", err)
		}
	}

	k.logger.Info("Disconnected from Kafka")
	return nil
}

// buildMessages encodes one message per block, keyed by block number so
// a block always lands on the same partition.
func buildMessages(blocks []*model.Block, receipts map[string]*model.Receipt) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(blocks))

	for _, block := range blocks {
		if block == nil {
			continue
		}

		msgByte, err := json.Marshal(NewBlockMessage(block, receipts))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal block %d message: %w", block.Number, err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(strconv.FormatUint(block.Number, 10)),
			Value: msgByte,
			Time:  block.Timestamp,
		})
	}

	return messages, nil
}

func (k *KafkaPublisher) PublishBlocks(ctx context.Context, blocks []*model.Block, receipts map[string]*model.Receipt) error {
	if len(blocks) == 0 {
		return nil
	}

	messages, err := buildMessages(blocks, receipts)
	if err != nil {
		return err
	}

	err = k.writer.WriteMessages(ctx, messages...)
	if err != nil {
		return fmt.Errorf("failed to publish batch of block messages: %w", err)
	}

	k.logger.Info("Published block batch",
		zap.Int("count", len(messages)),
		zap.Uint64("first_block", blocks[0].Number),
		zap.Uint64("last_block", blocks[len(blocks)-1].Number))

	return nil
}
