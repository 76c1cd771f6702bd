package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	orderingpostgres "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-order-api-server/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge idempotency keys")
	}

	store := orderingpostgres.NewIdempotencyStore(db, idempotencyTTLFromEnv())
	if err := store.PurgeExpired(ctx); err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	log.Printf("idempotency key purge completed")
}

func idempotencyTTLFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("IDEMPOTENCY_TTL_HOURS"))
	if raw == "" {
		return orderingpostgres.DefaultIdempotencyTTL
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return orderingpostgres.DefaultIdempotencyTTL
	}
	return time.Duration(hours) * time.Hour
}
