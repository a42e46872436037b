package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dackJaniel/bogof-engine/internal/adapters/cache"
	"github.com/dackJaniel/bogof-engine/internal/adapters/campaignconfig"
	eventadapter "github.com/dackJaniel/bogof-engine/internal/adapters/events"
	httpadapter "github.com/dackJaniel/bogof-engine/internal/adapters/http"
	"github.com/dackJaniel/bogof-engine/internal/adapters/memory"
	"github.com/dackJaniel/bogof-engine/internal/adapters/postgres"
	"github.com/dackJaniel/bogof-engine/internal/application"
	"github.com/dackJaniel/bogof-engine/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	worker     *eventadapter.ConsumerWorker
}

// NewRuntime wires the process. Redis and Postgres are optional: without a
// Redis URL carts and notices live in process memory, without a Postgres URL
// the catalog does too. The in-memory fallbacks keep local development and
// tests free of infrastructure.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	campaigns := campaignconfig.Load(ctx, cfg.CampaignsPath)
	registry := application.NewRegistry(campaigns)

	var (
		carts   ports.CartStore
		notices ports.NoticeSink
		drainer httpadapter.NoticeDrainer
	)
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		carts = cache.NewRedisCartStore(client, cfg.CartTTL)
		sink := cache.NewRedisNoticeSink(client, cfg.CartTTL)
		notices = sink
		drainer = sink
	} else {
		carts = memory.NewCartStore()
		recorder := memory.NewNoticeRecorder()
		notices = recorder
		drainer = recorder
	}

	var catalog ports.Catalog
	if cfg.PostgresURL != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresURL, cfg.PostgresMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		catalog = postgres.NewCatalog(db)
	} else {
		catalog = memory.NewCatalog()
	}

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:            cfg.ServiceID,
			EnableEventConsumption: cfg.EnableEventConsumption,
		},
		Registry: registry,
		Carts:    carts,
		Catalog:  catalog,
		Notices:  notices,
	})

	handler := httpadapter.NewHandler(service, carts, drainer)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var consumer eventadapter.Consumer
	if cfg.EnableEventConsumption && len(cfg.KafkaBrokers) > 0 {
		kafkaConsumer, err := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, []string{cfg.TopicCartUpdated, cfg.TopicCartCouponApplied})
		if err != nil {
			return nil, fmt.Errorf("create kafka consumer: %w", err)
		}
		consumer = kafkaConsumer
	} else {
		consumer = eventadapter.NewNoopConsumer()
	}
	worker := eventadapter.NewConsumerWorker(logger, consumer, service, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		worker:     worker,
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		if err := r.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
