package main

import (
	"github.com/purvik6062/nitro-explorer/internal/publisher"
	"github.com/purvik6062/nitro-explorer/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func followCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow",
		Short: "Follow the chain head and publish every new block",
		Long: `Follow the chain head and publish each new block with its receipts.
Blocks go to Kafka when kafka.enabled is set, otherwise to the log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := notifyShutdown(cmd.Context())
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.checkChainID(ctx)

			var blockPublisher publisher.Publisher
			if a.cfg.Kafka.Enabled {
				blockPublisher = publisher.NewKafkaPublisher(&a.cfg.Kafka, a.logger)
			} else {
				blockPublisher = publisher.NewLogPublisher(a.logger)
			}

			if err := blockPublisher.Connect(ctx); err != nil {
				return err
			}
			defer func() {
				if err := blockPublisher.Close(); err != nil {
					a.logger.Warn("Failed to close publisher", zap.Error(err))
				}
			}()

			follower := service.NewFollower(a.connector, a.explorer, blockPublisher, &a.cfg.Follow, a.logger)
			if err := follower.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			a.logger.Info("Shutdown signal received, gracefully shutting down...")
			follower.Stop()

			return nil
		},
	}
}
