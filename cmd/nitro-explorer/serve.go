package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/purvik6062/nitro-explorer/internal/api"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const gracefulShutdownPeriod = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer as a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := notifyShutdown(cmd.Context())
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.checkChainID(ctx)

			router := api.New(api.Opts{
				Explorer:    a.explorer,
				NodeURL:     a.cfg.Node.RPCURL,
				MaxPageSize: a.cfg.API.MaxPageSize,
				Logger:      a.logger,
			})

			apiServer := &http.Server{
				Addr:              a.cfg.API.Address,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				a.logger.Info("Starting API server", zap.String("address", a.cfg.API.Address))
				if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				a.logger.Info("Shutdown signal received, gracefully shutting down...")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
			defer cancel()

			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("API server shutdown error", zap.Error(err))
				return err
			}

			a.logger.Info("Graceful shutdown completed")
			return nil
		},
	}
}
