package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	appstock "github.com/mes/backend/internal/application/stock"
	appworkorder "github.com/mes/backend/internal/application/workorder"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/cache"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/mes/backend/internal/infrastructure/event"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/infrastructure/notification"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/internal/infrastructure/telemetry"
	httpapi "github.com/mes/backend/internal/interfaces/http"
	"github.com/mes/backend/internal/interfaces/http/handler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	db, err := persistence.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		idempotencyStore = store
	} else {
		log.Info("redis disabled, using in-memory idempotency store")
		idempotencyStore = cache.NewMemoryIdempotencyStore()
	}
	defer idempotencyStore.Close()

	bus := event.NewInMemoryEventBus(log)
	notifier := notification.NewLogNotifier(log)
	bus.Subscribe(appstock.NewShortageNotificationHandler(notifier, log))
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() {
		_ = bus.Stop(context.Background())
	}()

	scope := persistence.NewGormTransactionScope(db)
	idemConfig := shared.IdempotencyConfig{Enabled: cfg.Idempotency.Enabled, TTL: cfg.Idempotency.TTL}

	stockService := appstock.NewStockService(scope, log)
	documentService := appstock.NewDocumentService(scope, log)
	cycleCountService := appstock.NewCycleCountService(scope, log)
	postingService := appstock.NewPostingService(scope, bus, idempotencyStore, idemConfig, log)
	workOrderService := appworkorder.NewWorkOrderService(scope, bus, log)
	materialService := appworkorder.NewMaterialService(scope, log)
	laborService := appworkorder.NewLaborService(scope, log)

	router := httpapi.NewRouter(httpapi.Handlers{
		Stock:      handler.NewStockHandler(stockService, log),
		Document:   handler.NewDocumentHandler(documentService, postingService, log),
		CycleCount: handler.NewCycleCountHandler(cycleCountService, postingService, log),
		WorkOrder:  handler.NewWorkOrderHandler(workOrderService, materialService, log),
		Labor:      handler.NewLaborHandler(laborService, log),
	}, cfg.Telemetry.ServiceName, log)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
