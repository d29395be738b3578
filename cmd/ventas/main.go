package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/andicblue/ventas/internal/app"
	"github.com/andicblue/ventas/internal/cashflow"
	"github.com/andicblue/ventas/internal/catalog"
	"github.com/andicblue/ventas/internal/customers"
	"github.com/andicblue/ventas/internal/inventory"
	"github.com/andicblue/ventas/internal/observability"
	"github.com/andicblue/ventas/internal/orders"
	"github.com/andicblue/ventas/internal/platform/cache"
	"github.com/andicblue/ventas/internal/platform/db"
	"github.com/andicblue/ventas/internal/reports"
	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
	"github.com/andicblue/ventas/jobs"
)

// seedProducts is the starting catalog. Seeding is a no-op once the
// products sheet has rows.
var seedProducts = []catalog.Product{
	{Name: "Docena Arándanos 125g", UnitPrice: 52500},
	{Name: "Canastilla Arándanos 125g", UnitPrice: 4500},
	{Name: "Bandeja Arándanos 500g", UnitPrice: 15000},
	{Name: "Kilo Arándanos", UnitPrice: 28000},
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pgStore := rowstore.NewPostgres(pool)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		logger.Error("ensure schema", slog.Any("error", err))
		os.Exit(1)
	}
	store := rowstore.NewRetrying(pgStore, rowstore.RetryConfig{
		MaxAttempts: cfg.StoreRetryMax,
		BaseDelay:   cfg.StoreRetryBase,
	})

	locks := shared.NewRedisLocker(redisClient, 10*time.Second)
	idempotency := shared.NewIdempotencyStore(store)

	catalogService := catalog.NewService(store)
	if err := catalogService.Seed(ctx, seedProducts); err != nil {
		logger.Error("seed catalog", slog.Any("error", err))
		os.Exit(1)
	}
	directory := customers.NewService(store)
	stock := inventory.NewLedger(store, locks)
	cash := cashflow.NewLedger(store)
	seriesCache := cashflow.NewSeriesCache(redisClient, cfg.SeriesCacheTTL)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewOrderNotifier(jobClient, logger)

	orderService := orders.NewService(
		orders.NewRepository(store),
		catalogService,
		directory,
		stock,
		cash,
		orders.Policy{
			DeliveryFee:           cfg.DeliveryFee,
			FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
			ConflictRetries:       cfg.OrderConflictRetries,
		},
		idempotency,
		notifier,
	)
	reportService := reports.NewService(orderService, stock, catalogService, cash, seriesCache)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		OrdersHandler:    orders.NewHandler(logger, orderService),
		CustomersHandler: customers.NewHandler(logger, directory),
		InventoryHandler: inventory.NewHandler(logger, stock),
		CashflowHandler:  cashflow.NewHandler(logger, cash),
		CatalogHandler:   catalog.NewHandler(logger, catalogService),
		ReportsHandler:   reports.NewHandler(logger, reportService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
