package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	orderingmemory "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/memory"
	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

type fixture struct {
	products *catalogmemory.Repository
	orders   *orderingmemory.Repository
	uow      *uowSpy
	service  *Service
}

// uowSpy counts transaction scopes so tests can assert the store was never
// touched for rejected input.
type uowSpy struct {
	inner ports.UnitOfWork
	calls int
}

func (u *uowSpy) Execute(ctx context.Context, fn func(tx ports.TxContext) error) error {
	u.calls++
	return u.inner.Execute(ctx, fn)
}

func newFixture(opts ...Option) *fixture {
	products := catalogmemory.NewRepository()
	orders := orderingmemory.NewRepository()
	uow := &uowSpy{inner: orderingmemory.NewUnitOfWork(products, orders)}
	return &fixture{
		products: products,
		orders:   orders,
		uow:      uow,
		service:  NewService(uow, orders, opts...),
	}
}

func (f *fixture) seedProduct(t *testing.T, name string, price decimal.Decimal, stock int) *catalogdomain.Product {
	t.Helper()
	product, err := catalogdomain.NewProduct(0, name, "", price, stock)
	require.NoError(t, err)
	saved, err := f.products.Save(context.Background(), product)
	require.NoError(t, err)
	return saved
}

func TestPlaceOrder_DecrementsStockAndPersists(t *testing.T) {
	f := newFixture()
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 10)
	filters := f.seedProduct(t, "Filter Paper", decimal.NewFromFloat(2.50), 4)

	orderID, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{
			{ProductID: beans.ID, Quantity: 3},
			{ProductID: filters.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, orderID)

	projection, err := f.service.GetOrderByID(context.Background(), types.OrderIdentifier{ID: orderID})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusPending), projection.Status)
	require.Len(t, projection.Items, 2)
	require.True(t, projection.Total.Equal(decimal.NewFromFloat(17.50)))

	updatedBeans, err := f.products.GetByID(context.Background(), beans.ID)
	require.NoError(t, err)
	require.Equal(t, 7, updatedBeans.StockQuantity)
	require.Equal(t, beans.Version+1, updatedBeans.Version)

	updatedFilters, err := f.products.GetByID(context.Background(), filters.ID)
	require.NoError(t, err)
	require.Equal(t, 3, updatedFilters.StockQuantity)
}

func TestPlaceOrder_SnapshotsUnitPrice(t *testing.T) {
	f := newFixture()
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 10)

	orderID, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: beans.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// Raise the catalog price after placement.
	current, err := f.products.GetByID(context.Background(), beans.ID)
	require.NoError(t, err)
	require.NoError(t, current.ChangePrice(decimal.NewFromFloat(9.99)))
	_, err = f.products.Save(context.Background(), current)
	require.NoError(t, err)

	projection, err := f.service.GetOrderByID(context.Background(), types.OrderIdentifier{ID: orderID})
	require.NoError(t, err)
	require.True(t, projection.Items[0].UnitPrice.Equal(decimal.NewFromFloat(5.00)))
	require.True(t, projection.Total.Equal(decimal.NewFromFloat(10.00)))
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture()
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 2)

	_, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: beans.ID, Quantity: 5}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var detail *InsufficientStockError
	require.ErrorAs(t, err, &detail)
	require.Equal(t, beans.ID, detail.ProductID)
	require.Equal(t, 5, detail.Requested)
	require.Equal(t, 2, detail.Available)

	unchanged, err := f.products.GetByID(context.Background(), beans.ID)
	require.NoError(t, err)
	require.Equal(t, 2, unchanged.StockQuantity)
	require.Equal(t, beans.Version, unchanged.Version)

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: 999, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrProductNotFound)

	var detail *ProductNotFoundError
	require.ErrorAs(t, err, &detail)
	require.Equal(t, int64(999), detail.ProductID)

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestPlaceOrder_EmptyRequestSkipsStore(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.ErrorIs(t, err, domain.ErrNoItems)
	require.Zero(t, f.uow.calls)
}

func TestPlaceOrder_RejectsInvalidLines(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: 1, Quantity: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: -1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.ErrorIs(t, err, domain.ErrInvalidProductID)
	require.Zero(t, f.uow.calls)
}

func TestPlaceOrder_DuplicateLinesShareStock(t *testing.T) {
	f := newFixture()
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 5)

	// Both lines draw from the same availability; 3+3 exceeds 5.
	_, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{
			{ProductID: beans.ID, Quantity: 3},
			{ProductID: beans.ID, Quantity: 3},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// 2+2 fits and commits as one versioned write.
	orderID, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{
			{ProductID: beans.ID, Quantity: 2},
			{ProductID: beans.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, orderID)

	updated, err := f.products.GetByID(context.Background(), beans.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.StockQuantity)
	require.Equal(t, beans.Version+1, updated.Version)
}

func TestPlaceOrder_PartialFailureRollsBack(t *testing.T) {
	f := newFixture()
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 10)
	filters := f.seedProduct(t, "Filter Paper", decimal.NewFromFloat(2.50), 1)

	_, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{
			{ProductID: beans.ID, Quantity: 3},
			{ProductID: filters.ID, Quantity: 5},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	unchanged, err := f.products.GetByID(context.Background(), beans.ID)
	require.NoError(t, err)
	require.Equal(t, 10, unchanged.StockQuantity)

	orders, err := f.orders.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

// conflictUnitOfWork simulates a placement losing the optimistic race at commit.
type conflictUnitOfWork struct{}

func (conflictUnitOfWork) Execute(context.Context, func(tx ports.TxContext) error) error {
	return catalogports.ErrVersionConflict
}

func TestPlaceOrder_VersionConflictSurfacesAsConcurrencyConflict(t *testing.T) {
	orders := orderingmemory.NewRepository()
	svc := NewService(conflictUnitOfWork{}, orders)

	_, err := svc.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrConcurrencyConflict)
	require.ErrorIs(t, err, catalogports.ErrVersionConflict)
}

func TestPlaceOrder_IdempotentReplay(t *testing.T) {
	store := orderingmemory.NewIdempotencyStore()
	f := newFixture(WithIdempotencyStore(store))
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 10)

	input := types.PlaceOrderInput{
		Lines:          []types.OrderLineInput{{ProductID: beans.ID, Quantity: 3}},
		IdempotencyKey: "retry-1",
	}
	first, err := f.service.PlaceOrder(context.Background(), input)
	require.NoError(t, err)

	second, err := f.service.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Stock was decremented exactly once.
	product, err := f.products.GetByID(context.Background(), beans.ID)
	require.NoError(t, err)
	require.Equal(t, 7, product.StockQuantity)

	// Same key with a different payload is rejected.
	input.Lines[0].Quantity = 4
	_, err = f.service.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

type capturingPublisher struct {
	events []domain.OrderPlaced
}

func (p *capturingPublisher) PublishOrderPlaced(_ context.Context, event domain.OrderPlaced) error {
	p.events = append(p.events, event)
	return nil
}

func TestPlaceOrder_PublishesOrderPlaced(t *testing.T) {
	publisher := &capturingPublisher{}
	f := newFixture(WithEventPublisher(publisher), WithClock(func() time.Time {
		return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	}))
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 10)

	orderID, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: beans.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	require.Equal(t, orderID, event.OrderID)
	require.Len(t, event.Lines, 1)
	require.True(t, event.Total.Equal(decimal.NewFromFloat(10.00)))

	// A rejected placement publishes nothing.
	_, err = f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: beans.ID, Quantity: 100}},
	})
	require.Error(t, err)
	require.Len(t, publisher.events, 1)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.service.GetOrderByID(context.Background(), types.OrderIdentifier{ID: 42})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestAdvanceOrder_EnforcesLifecycle(t *testing.T) {
	f := newFixture()
	beans := f.seedProduct(t, "Espresso Beans", decimal.NewFromFloat(5.00), 10)

	orderID, err := f.service.PlaceOrder(context.Background(), types.PlaceOrderInput{
		Lines: []types.OrderLineInput{{ProductID: beans.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Skipping approval is rejected.
	_, err = f.service.AdvanceOrder(context.Background(), types.AdvanceOrderInput{ID: orderID, Status: string(domain.StatusDelivered)})
	require.ErrorIs(t, err, ErrInvalidRequest)

	approved, err := f.service.AdvanceOrder(context.Background(), types.AdvanceOrderInput{ID: orderID, Status: string(domain.StatusApproved)})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusApproved), approved.Status)

	delivered, err := f.service.AdvanceOrder(context.Background(), types.AdvanceOrderInput{ID: orderID, Status: string(domain.StatusDelivered)})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusDelivered), delivered.Status)
}
