package memory

import (
	"context"
	"errors"
	"sync"

	catalogmemory "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/memory"
	catalogdomain "github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork is the in-memory transaction scope used by tests and the DSN-less
// development fallback. Writes issued through the scope are buffered; commit
// checks every staged product version and applies the batch all-or-nothing,
// mirroring the optimistic-concurrency behavior of the Postgres adapter.
type UnitOfWork struct {
	products *catalogmemory.Repository
	orders   *Repository
	commitMu sync.Mutex
}

// NewUnitOfWork groups the shared in-memory stores into one transactional scope.
func NewUnitOfWork(products *catalogmemory.Repository, orders *Repository) *UnitOfWork {
	return &UnitOfWork{products: products, orders: orders}
}

// Execute runs fn against a buffering scope. A nil return commits; any error,
// or a canceled context, discards every staged change.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(tx ports.TxContext) error) error {
	if u == nil || u.products == nil || u.orders == nil {
		return errors.New("memory unit of work not configured")
	}
	scope := &txScope{uow: u}
	if err := fn(scope); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return u.commit(ctx, scope)
}

func (u *UnitOfWork) commit(ctx context.Context, scope *txScope) error {
	u.commitMu.Lock()
	defer u.commitMu.Unlock()
	if len(scope.stagedProducts) > 0 {
		if _, err := u.products.UpdateAllVersioned(ctx, scope.stagedProducts); err != nil {
			return err
		}
	}
	for _, order := range scope.stagedOrders {
		if _, err := u.orders.Insert(ctx, order); err != nil {
			return err
		}
	}
	return nil
}

// txScope buffers writes and serves reads from staged state first, so a
// request listing the same product twice observes its own pending decrement.
type txScope struct {
	uow            *UnitOfWork
	stagedProducts []*catalogdomain.Product
	stagedOrders   []*domain.Order
}

func (s *txScope) Products() catalogports.Repository {
	return &stagedProductRepo{scope: s}
}

func (s *txScope) Orders() ports.Repository {
	return &stagedOrderRepo{scope: s}
}

type stagedProductRepo struct {
	scope *txScope
}

var _ catalogports.Repository = (*stagedProductRepo)(nil)

func (r *stagedProductRepo) GetByID(ctx context.Context, id int64) (*catalogdomain.Product, error) {
	for _, staged := range r.scope.stagedProducts {
		if staged.ID == id {
			clone := *staged
			return &clone, nil
		}
	}
	return r.scope.uow.products.GetByID(ctx, id)
}

// UpdateVersioned stages the write; the version check happens at commit.
func (r *stagedProductRepo) UpdateVersioned(_ context.Context, product *catalogdomain.Product) (*catalogdomain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := *product
	for i, staged := range r.scope.stagedProducts {
		if staged.ID == clone.ID {
			// Re-staging keeps the version read from the store, so the
			// commit-time check still compares against the original read.
			clone.Version = staged.Version
			r.scope.stagedProducts[i] = &clone
			out := clone
			return &out, nil
		}
	}
	r.scope.stagedProducts = append(r.scope.stagedProducts, &clone)
	out := clone
	return &out, nil
}

func (r *stagedProductRepo) List(ctx context.Context) ([]*catalogdomain.Product, error) {
	return r.scope.uow.products.List(ctx)
}

func (r *stagedProductRepo) Save(_ context.Context, _ *catalogdomain.Product) (*catalogdomain.Product, error) {
	return nil, errors.New("catalog writes other than versioned updates are not part of a placement scope")
}

func (r *stagedProductRepo) Delete(_ context.Context, _ int64) error {
	return errors.New("catalog deletes are not part of a placement scope")
}

type stagedOrderRepo struct {
	scope *txScope
}

var _ ports.Repository = (*stagedOrderRepo)(nil)

// Insert stages the order and reserves its identifier so callers learn the id
// the commit will persist.
func (r *stagedOrderRepo) Insert(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := cloneOrder(order)
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	if clone.ID == 0 {
		clone.ID = r.scope.uow.orders.reserveID()
	}
	r.scope.stagedOrders = append(r.scope.stagedOrders, clone)
	return cloneOrder(clone), nil
}

func (r *stagedOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.scope.uow.orders.GetByID(ctx, id)
}

func (r *stagedOrderRepo) List(ctx context.Context) ([]*domain.Order, error) {
	return r.scope.uow.orders.List(ctx)
}

func (r *stagedOrderRepo) UpdateStatus(_ context.Context, _ int64, _ domain.Status) (*domain.Order, error) {
	return nil, errors.New("status updates are not part of a placement scope")
}
