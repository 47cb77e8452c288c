package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/sentiment"
	"github.com/tsawler/sentiment/internal/config"
	"github.com/tsawler/sentiment/internal/logging"
	"github.com/tsawler/sentiment/internal/metrics"
	"github.com/tsawler/sentiment/internal/server"
	"github.com/tsawler/sentiment/internal/version"
)

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve batch predictions over HTTP",
		Long: `Loads the model artifacts from MODEL_DIR and serves the prediction API on PORT.
The server starts even when the artifacts cannot be loaded; /health then reports
unhealthy and /predict_batch answers 503.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dotenv, err := config.Load()
			if err != nil {
				return err
			}

			level, format := cfg.LogLevel, cfg.LogFormat
			if cmd.Flags().Changed("log-level") {
				level = a.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				format = a.logFormat
			}
			logger, err := logging.New(level, format)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("starting sentiment api",
				zap.String("version", version.Version),
				zap.String("env", cfg.AppEnv),
				zap.Bool("dotenv", dotenv),
				zap.String("model_dir", cfg.ModelDir),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := sentiment.NewService(
				sentiment.WithLogger(logger),
				sentiment.WithObserver(metrics.Observer{}),
				sentiment.WithLimits(cfg.Limits()),
			)
			if err := svc.Load(ctx, sentiment.DirLoader(cfg.ModelDir)); err != nil {
				logger.Error("model artifacts unavailable, serving without a model", zap.Error(err))
			}

			srv := server.NewServer(svc, logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(cfg.Addr()) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		},
	}
}
