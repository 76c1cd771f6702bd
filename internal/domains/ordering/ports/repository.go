package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
)

var ErrNotFound = errors.New("order not found")

// Repository persists order aggregates. Insert writes the order and its line
// items as one logical write and assigns the store-generated identifier.
type Repository interface {
	Insert(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Order, error)
}
