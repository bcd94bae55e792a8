// Command nitro-explorer browses the blocks, transactions and accounts of a
// local Arbitrum Nitro node.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/purvik6062/nitro-explorer/internal/config"
	"github.com/purvik6062/nitro-explorer/internal/connector"
	"github.com/purvik6062/nitro-explorer/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// build is set during compilation via -ldflags "-X main.build=<version>"
var build = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nitro-explorer",
		Short:         "Explore a local Arbitrum Nitro node",
		Version:       build,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().String("config", ".", "Config file, or directory containing config.yaml")

	cmd.AddCommand(
		blocksCmd(),
		txCmd(),
		addressCmd(),
		devAccountCmd(),
		serveCmd(),
		followCmd(),
	)

	return cmd
}

// app holds the components every subcommand needs.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	connector *connector.EthereumConnector
	explorer  *service.ExplorerService
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := config.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	nodeConnector := connector.NewEthereumConnector(&cfg.Node, logger)
	if err := nodeConnector.Connect(ctx); err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		connector: nodeConnector,
		explorer:  service.NewExplorerService(nodeConnector, &cfg.Explorer, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.connector.Close(); err != nil {
		a.logger.Warn("Failed to close node connection", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// checkChainID warns when the node is not the chain the config expects.
func (a *app) checkChainID(ctx context.Context) {
	chainID, err := a.connector.ChainID(ctx)
	if err != nil {
		a.logger.Warn("Could not read chain id", zap.Error(err))
		return
	}
	if a.cfg.Node.ChainID != 0 && chainID.Int64() != a.cfg.Node.ChainID {
		a.logger.Warn("Node chain id does not match config",
			zap.Int64("expected", a.cfg.Node.ChainID),
			zap.String("actual", chainID.String()))
		return
	}
	a.logger.Info("Connected to chain", zap.String("chain_id", chainID.String()))
}

// notifyShutdown returns a context cancelled on SIGINT or SIGTERM.
func notifyShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
