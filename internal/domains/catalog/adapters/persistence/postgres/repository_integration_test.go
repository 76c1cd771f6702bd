//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-order-api-server/internal/platform/migrations"
)

func setupCatalogPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orders_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func mustProduct(t *testing.T, id int64, stock int) *domain.Product {
	t.Helper()
	product, err := domain.NewProduct(id, "Espresso Beans", "1kg bag", decimal.NewFromFloat(14.50), stock)
	require.NoError(t, err)
	return product
}

func TestRepository_SaveAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, mustProduct(t, 1, 25))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, int64(1), saved.Version)

	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, fetched.StockQuantity)
	assert.True(t, fetched.Price.Equal(decimal.NewFromFloat(14.50)))
}

func TestRepository_UpdateVersioned(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, mustProduct(t, 1, 10))
	require.NoError(t, err)

	saved.StockQuantity = 7
	updated, err := repo.UpdateVersioned(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.StockQuantity)
	assert.Equal(t, int64(2), updated.Version)

	// A writer still holding the old version loses.
	stale := *saved
	stale.StockQuantity = 5
	_, err = repo.UpdateVersioned(ctx, &stale)
	assert.ErrorIs(t, err, ports.ErrVersionConflict)

	// The stored row is untouched by the losing write.
	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, fetched.StockQuantity)
	assert.Equal(t, int64(2), fetched.Version)
}

func TestRepository_UpdateVersionedUnknownID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	ghost := mustProduct(t, 999, 1)
	ghost.Version = 1
	_, err := repo.UpdateVersioned(ctx, ghost)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_DeleteAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupCatalogPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := repo.Save(ctx, mustProduct(t, i, int(i)*10))
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	err = repo.Delete(ctx, 2)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	err = repo.Delete(ctx, 2)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
