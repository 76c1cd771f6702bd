package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

// Service orchestrates order placement. Correctness under concurrent
// placements relies entirely on the catalog store's versioned update inside
// one Unit of Work scope, never on in-process locking, so it holds across
// processes sharing the same store.
type Service struct {
	uow         ports.UnitOfWork
	orders      ports.Repository
	idempotency ports.IdempotencyStore
	publisher   ports.EventPublisher
	now         func() time.Time
}

type Option func(*Service)

// WithIdempotencyStore enables replay of placements carrying an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithEventPublisher enables post-commit OrderPlaced events.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the ordering service with its dependencies.
func NewService(uow ports.UnitOfWork, orders ports.Repository, opts ...Option) *Service {
	s := &Service{uow: uow, orders: orders, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// PlaceOrder validates the request, then inside one transaction scope reads
// each product, checks availability, stages the stock decrement, and inserts
// the assembled order. Commit is all-or-nothing: any failure, including a
// version conflict from a concurrent placement, leaves stored state untouched.
// Conflicts are surfaced as ErrConcurrencyConflict and are never retried here;
// retry is a caller decision against fresh reads.
func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (int64, error) {
	if err := validatePlaceOrder(input); err != nil {
		return 0, err
	}

	fingerprint := ""
	if input.IdempotencyKey != "" && s.idempotency != nil {
		var err error
		fingerprint, err = FingerprintPlaceOrder(input)
		if err != nil {
			return 0, err
		}
		record, err := s.idempotency.Get(ctx, input.IdempotencyKey)
		if err != nil {
			return 0, err
		}
		if record != nil {
			if record.RequestHash != fingerprint {
				return 0, ports.ErrIdempotencyConflict
			}
			return record.OrderID, nil
		}
	}

	// Timestamp reflects orchestration start, not commit time.
	order := domain.NewOrder(s.now().UTC())

	err := s.uow.Execute(ctx, func(tx ports.TxContext) error {
		for _, line := range input.Lines {
			product, err := tx.Products().GetByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, catalogports.ErrNotFound) {
					return &ProductNotFoundError{ProductID: line.ProductID}
				}
				return err
			}
			if product.StockQuantity < line.Quantity {
				return &InsufficientStockError{
					ProductID: product.ID,
					Requested: line.Quantity,
					Available: product.StockQuantity,
				}
			}
			if err := order.AddLine(product.ID, line.Quantity, product.Price); err != nil {
				return mapError(err)
			}
			if err := product.ReduceStock(line.Quantity); err != nil {
				return err
			}
			if _, err := tx.Products().UpdateVersioned(ctx, product); err != nil {
				return err
			}
		}
		if err := order.Validate(); err != nil {
			return mapError(err)
		}
		saved, err := tx.Orders().Insert(ctx, order)
		if err != nil {
			return err
		}
		order = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, catalogports.ErrVersionConflict) {
			return 0, fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
		}
		return 0, err
	}

	if input.IdempotencyKey != "" && s.idempotency != nil {
		// Advisory record; the order is already committed, so a store error
		// here must not fail the placement.
		_, _ = s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:         input.IdempotencyKey,
			RequestHash: fingerprint,
			OrderID:     order.ID,
		})
	}
	s.publishOrderPlaced(ctx, order)

	return order.ID, nil
}

// GetOrderByID loads the read-side projection of one order.
func (s *Service) GetOrderByID(ctx context.Context, input types.OrderIdentifier) (*types.OrderProjection, error) {
	order, err := s.orders.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return types.ProjectOrder(order), nil
}

// ListOrders returns projections of every stored order.
func (s *Service) ListOrders(ctx context.Context) ([]*types.OrderProjection, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return types.ProjectOrders(orders), nil
}

// AdvanceOrder validates and persists a lifecycle transition.
func (s *Service) AdvanceOrder(ctx context.Context, input types.AdvanceOrderInput) (*types.OrderProjection, error) {
	order, err := s.orders.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := order.Advance(domain.Status(input.Status)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	updated, err := s.orders.UpdateStatus(ctx, order.ID, order.Status)
	if err != nil {
		return nil, err
	}
	return types.ProjectOrder(updated), nil
}

func (s *Service) publishOrderPlaced(ctx context.Context, order *domain.Order) {
	if s.publisher == nil || order == nil {
		return
	}
	event := domain.OrderPlaced{
		BaseEvent: domain.BaseEvent{Timestamp: s.now().UTC()},
		OrderID:   order.ID,
		Total:     order.Total(),
	}
	for _, item := range order.Items {
		event.Lines = append(event.Lines, domain.OrderPlacedLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	// Post-commit notification; a publish failure must not unwind the
	// placement. The publisher adapter reports its own errors.
	_ = s.publisher.PublishOrderPlaced(ctx, event)
}

func validatePlaceOrder(input types.PlaceOrderInput) error {
	if len(input.Lines) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, domain.ErrNoItems)
	}
	for _, line := range input.Lines {
		if line.ProductID <= 0 {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, domain.ErrInvalidProductID)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, domain.ErrInvalidQuantity)
		}
	}
	return nil
}

var _ ports.Service = (*Service)(nil)
