package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/build"
	"github.com/aescanero/dago-sitegen/internal/worker"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Rebuild the site on requests from a Redis stream",
		Long: `Join the consumer group on STREAM_KEY and run a full build for every
request. Results go to RESULT_STREAM and the last report is served by the
health server at /build/last.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorker(cmd.Context())
		},
	}
}

func (a *app) runWorker(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("starting build worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
	)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	store := worker.NewStore(redisClient, cfg.LastBuildKey)
	buildFn := func(ctx context.Context, req *worker.BuildRequest) (*build.Report, error) {
		logger.Info("build requested",
			zap.String("request_id", req.RequestID),
			zap.String("reason", req.Reason),
		)
		return a.runBuild(ctx, req.Filter)
	}

	w := worker.NewWorker(cfg, redisClient, buildFn, store, logger)
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	healthServer := worker.NewHealthServer(cfg.HealthPort, redisClient, store, logger)
	if err := healthServer.Start(); err != nil {
		_ = w.Stop()
		return fmt.Errorf("failed to start health server: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("build worker running, press Ctrl+C to stop")
	<-sigCtx.Done()
	logger.Info("shutdown signal received, stopping worker")

	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}
	if err := w.Stop(); err != nil {
		logger.Error("failed to stop worker", zap.Error(err))
	}

	logger.Info("worker stopped gracefully")
	return nil
}
