package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/andicblue/ventas/internal/app"
	"github.com/andicblue/ventas/internal/cashflow"
	"github.com/andicblue/ventas/internal/platform/cache"
	"github.com/andicblue/ventas/internal/platform/db"
	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store := rowstore.NewRetrying(rowstore.NewPostgres(pool), rowstore.RetryConfig{
		MaxAttempts: cfg.StoreRetryMax,
		BaseDelay:   cfg.StoreRetryBase,
	})
	ledger := cashflow.NewLedger(store)
	seriesCache := cashflow.NewSeriesCache(redisClient, cfg.SeriesCacheTTL)
	refreshJob := jobs.NewSeriesRefreshJob(ledger, seriesCache, logger)

	weeklyTask, err := jobs.NewSeriesRefreshTask(string(cashflow.Weekly))
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSeriesRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			// Monday 05:00 UTC, start of the delivery week.
			{Spec: "0 5 * * 1", Task: weeklyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
