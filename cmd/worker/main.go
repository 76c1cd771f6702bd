package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	catalogmemory "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/memory"
	orderingmemory "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/memory"
	orderingpostgres "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/persistence/postgres"
	orderingapp "github.com/Apurer/go-order-api-server/internal/domains/ordering/application"
	orderingports "github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
	orderworkflows "github.com/Apurer/go-order-api-server/internal/durable/temporal/workflows/ordering"
	platformobservability "github.com/Apurer/go-order-api-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-order-api-server/internal/platform/postgres"
	orderactivities "github.com/Apurer/go-order-api-server/internal/platform/temporal/activities/ordering"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	uow, orders, cleanupRepo := buildOrderingStores(ctx, logger)
	defer cleanupRepo()
	orderingService := orderingapp.NewService(uow, orders)
	activityBundle := orderactivities.NewActivities(orderingService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderFulfillmentTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderFulfillmentWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderFulfillmentWorkflowName})
	w.RegisterActivityWithOptions(activityBundle.AdvanceOrder, activity.RegisterOptions{Name: orderactivities.AdvanceOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderFulfillmentTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderingStores(ctx context.Context, logger *slog.Logger) (orderingports.UnitOfWork, orderingports.Repository, func()) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory ordering repositories")
		return memoryOrderingStores()
	}
	db, err := platformpostgres.Connect(ctx, dsn)
	if err != nil {
		logger.Warn("worker failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return memoryOrderingStores()
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("worker failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return memoryOrderingStores()
	}
	logger.Info("worker ordering repositories configured with postgres")
	return orderingpostgres.NewUnitOfWork(db), orderingpostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}

func memoryOrderingStores() (orderingports.UnitOfWork, orderingports.Repository, func()) {
	products := catalogmemory.NewRepository()
	orders := orderingmemory.NewRepository()
	return orderingmemory.NewUnitOfWork(products, orders), orders, func() {}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
