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

	catalogpostgres "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
	"github.com/Apurer/go-order-api-server/internal/platform/migrations"
)

func setupOrderingPostgresContainer(t *testing.T) (*gorm.DB, func()) {
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

func seedCatalogProduct(t *testing.T, db *gorm.DB, stock int) *catalogdomain.Product {
	t.Helper()
	product, err := catalogdomain.NewProduct(0, "Espresso Beans", "", decimal.NewFromFloat(5.00), stock)
	require.NoError(t, err)
	product.ID = 1
	saved, err := catalogpostgres.NewRepository(db).Save(context.Background(), product)
	require.NoError(t, err)
	return saved
}

func TestRepository_InsertPreservesLineOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := domain.NewOrder(time.Now().UTC())
	require.NoError(t, order.AddLine(3, 1, decimal.NewFromFloat(2.50)))
	require.NoError(t, order.AddLine(1, 2, decimal.NewFromFloat(5.00)))
	require.NoError(t, order.AddLine(2, 4, decimal.NewFromFloat(1.25)))

	saved, err := repo.Insert(ctx, order)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 3)
	assert.Equal(t, int64(3), fetched.Items[0].ProductID)
	assert.Equal(t, int64(1), fetched.Items[1].ProductID)
	assert.Equal(t, int64(2), fetched.Items[2].ProductID)
	assert.True(t, fetched.Total().Equal(decimal.NewFromFloat(17.50)))
}

func TestRepository_UpdateStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	order := domain.NewOrder(time.Now().UTC())
	require.NoError(t, order.AddLine(1, 1, decimal.NewFromFloat(5.00)))
	saved, err := repo.Insert(ctx, order)
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, saved.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)

	_, err = repo.UpdateStatus(ctx, 999, domain.StatusApproved)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUnitOfWork_CommitsPlacementAtomically(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	seeded := seedCatalogProduct(t, db, 10)
	uow := NewUnitOfWork(db)
	ctx := context.Background()

	var orderID int64
	err := uow.Execute(ctx, func(tx ports.TxContext) error {
		product, err := tx.Products().GetByID(ctx, seeded.ID)
		if err != nil {
			return err
		}
		if err := product.ReduceStock(4); err != nil {
			return err
		}
		if _, err := tx.Products().UpdateVersioned(ctx, product); err != nil {
			return err
		}
		order := domain.NewOrder(time.Now().UTC())
		if err := order.AddLine(product.ID, 4, product.Price); err != nil {
			return err
		}
		saved, err := tx.Orders().Insert(ctx, order)
		if err != nil {
			return err
		}
		orderID = saved.ID
		return nil
	})
	require.NoError(t, err)
	require.NotZero(t, orderID)

	product, err := catalogpostgres.NewRepository(db).GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, product.StockQuantity)
	assert.Equal(t, seeded.Version+1, product.Version)
}

func TestUnitOfWork_ErrorRollsBackEverything(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	seeded := seedCatalogProduct(t, db, 10)
	uow := NewUnitOfWork(db)
	ctx := context.Background()

	err := uow.Execute(ctx, func(tx ports.TxContext) error {
		product, err := tx.Products().GetByID(ctx, seeded.ID)
		if err != nil {
			return err
		}
		if err := product.ReduceStock(4); err != nil {
			return err
		}
		if _, err := tx.Products().UpdateVersioned(ctx, product); err != nil {
			return err
		}
		order := domain.NewOrder(time.Now().UTC())
		if err := order.AddLine(product.ID, 4, product.Price); err != nil {
			return err
		}
		if _, err := tx.Orders().Insert(ctx, order); err != nil {
			return err
		}
		// Simulate a later line failing availability.
		return catalogports.ErrVersionConflict
	})
	require.ErrorIs(t, err, catalogports.ErrVersionConflict)

	product, err := catalogpostgres.NewRepository(db).GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, product.StockQuantity)
	assert.Equal(t, seeded.Version, product.Version)

	orders, err := NewRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUnitOfWork_StaleVersionLoses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	seeded := seedCatalogProduct(t, db, 10)
	uow := NewUnitOfWork(db)
	ctx := context.Background()

	// Both writers read the same version.
	catalogRepo := catalogpostgres.NewRepository(db)
	first, err := catalogRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	second, err := catalogRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)

	place := func(product *catalogdomain.Product, qty int) error {
		return uow.Execute(ctx, func(tx ports.TxContext) error {
			if err := product.ReduceStock(qty); err != nil {
				return err
			}
			if _, err := tx.Products().UpdateVersioned(ctx, product); err != nil {
				return err
			}
			order := domain.NewOrder(time.Now().UTC())
			if err := order.AddLine(product.ID, qty, product.Price); err != nil {
				return err
			}
			_, err := tx.Orders().Insert(ctx, order)
			return err
		})
	}

	require.NoError(t, place(first, 3))
	err = place(second, 2)
	require.ErrorIs(t, err, catalogports.ErrVersionConflict)

	// Only the winning decrement is visible.
	product, err := catalogRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, product.StockQuantity)
	assert.Equal(t, seeded.Version+1, product.Version)

	orders, err := NewRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestIdempotencyStore_SaveGetAndConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrderingPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db, time.Hour)
	ctx := context.Background()

	missing, err := store.Get(ctx, "retry-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "retry-1", RequestHash: "abc", OrderID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), saved.OrderID)

	fetched, err := store.Get(ctx, "retry-1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "abc", fetched.RequestHash)

	// Same key, same hash is a no-op replay.
	replayed, err := store.Save(ctx, ports.IdempotencyRecord{Key: "retry-1", RequestHash: "abc", OrderID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), replayed.OrderID)

	// Same key, different hash is a conflict.
	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "retry-1", RequestHash: "xyz", OrderID: 8})
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}
