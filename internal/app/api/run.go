package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	catalogmemory "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-order-api-server/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	orderingkafka "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/events/kafka"
	orderingmemory "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/memory"
	orderingobs "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/observability"
	orderingpostgres "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/persistence/postgres"
	orderingredis "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/redis"
	orderingworkflows "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/workflows"
	orderingapp "github.com/Apurer/go-order-api-server/internal/domains/ordering/application"
	orderingports "github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
	platformmigrations "github.com/Apurer/go-order-api-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-order-api-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-order-api-server/internal/platform/postgres"
	"github.com/Apurer/go-order-api-server/internal/transport/httpapi"
)

// Run boots the order HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "order-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	stores, cleanupStores := buildStores(ctx, cfg, logger)
	defer cleanupStores()

	catalogService := catalogobs.New(
		catalogapp.NewService(stores.products),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)

	orderingOpts := []orderingapp.Option{orderingapp.WithIdempotencyStore(stores.idempotency)}
	if publisher := buildPublisher(cfg, logger); publisher != nil {
		defer func() { _ = publisher.Close() }()
		orderingOpts = append(orderingOpts, orderingapp.WithEventPublisher(publisher))
	}
	orderingService := orderingobs.New(
		orderingapp.NewService(stores.uow, stores.orders, orderingOpts...),
		orderingobs.WithLogger(logger),
		orderingobs.WithTracer(instruments.Tracer("internal.ordering.application")),
		orderingobs.WithMeter(instruments.Meter("internal.ordering.application")),
	)

	var fulfillment orderingports.FulfillmentOrchestrator = orderingworkflows.NewInlineFulfillment(orderingService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running inline fulfillment", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		fulfillment = orderingworkflows.NewTemporalFulfillment(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := httpapi.ApiHandleFunctions{
		ProductAPI: httpapi.NewProductAPI(catalogService),
		OrderAPI:   httpapi.NewOrderAPI(orderingService, fulfillment, logger),
	}

	router := httpapi.NewRouter(handlers, logger)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("order API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("order API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// stores bundles the persistence ports behind one backend choice.
type stores struct {
	products    catalogports.Repository
	orders      orderingports.Repository
	uow         orderingports.UnitOfWork
	idempotency orderingports.IdempotencyStore
}

func buildStores(ctx context.Context, cfg Config, logger *slog.Logger) (stores, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return buildMemoryStores(ctx, cfg, logger), func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory repositories", slog.String("error", err.Error()))
		return buildMemoryStores(ctx, cfg, logger), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory repositories", slog.String("error", err.Error()))
		return buildMemoryStores(ctx, cfg, logger), func() {}
	}
	if err := platformmigrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to in-memory repositories", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return buildMemoryStores(ctx, cfg, logger), func() {}
	}
	logger.Info("repositories configured with postgres")
	s := stores{
		products:    catalogpostgres.NewRepository(db),
		orders:      orderingpostgres.NewRepository(db),
		uow:         orderingpostgres.NewUnitOfWork(db),
		idempotency: orderingpostgres.NewIdempotencyStore(db, cfg.IdempotencyTTL),
	}
	if redisStore := buildRedisIdempotencyStore(ctx, cfg, logger); redisStore != nil {
		s.idempotency = redisStore
	}
	return s, func() { _ = sqlDB.Close() }
}

func buildMemoryStores(ctx context.Context, cfg Config, logger *slog.Logger) stores {
	products := catalogmemory.NewRepository()
	orders := orderingmemory.NewRepository()
	s := stores{
		products:    products,
		orders:      orders,
		uow:         orderingmemory.NewUnitOfWork(products, orders),
		idempotency: orderingmemory.NewIdempotencyStore(),
	}
	if redisStore := buildRedisIdempotencyStore(ctx, cfg, logger); redisStore != nil {
		s.idempotency = redisStore
	}
	return s
}

func buildRedisIdempotencyStore(ctx context.Context, cfg Config, logger *slog.Logger) orderingports.IdempotencyStore {
	if cfg.RedisAddr == "" {
		return nil
	}
	store := orderingredis.NewIdempotencyStore(cfg.RedisAddr, cfg.IdempotencyTTL)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, using fallback idempotency store", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		_ = store.Close()
		return nil
	}
	logger.Info("idempotency store configured with redis", slog.String("addr", cfg.RedisAddr))
	return store
}

func buildPublisher(cfg Config, logger *slog.Logger) *orderingkafka.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, order placement events disabled")
		return nil
	}
	publisher := orderingkafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	logger.Info("order placement events configured with kafka", slog.Any("brokers", cfg.KafkaBrokers))
	return publisher
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
