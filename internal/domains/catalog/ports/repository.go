package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
)

var (
	ErrNotFound = errors.New("product not found")

	// ErrVersionConflict signals the stored version no longer matches the
	// version the caller read, i.e. a concurrent update won the race.
	ErrVersionConflict = errors.New("product version conflict")
)

// Repository persists products and exposes the versioned update used by
// order placement to prevent lost stock decrements.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Product, error)
	// UpdateVersioned writes the product's attributes only while the stored
	// version equals product.Version, then increments the stored version.
	// ErrVersionConflict is returned, with nothing modified, otherwise.
	UpdateVersioned(ctx context.Context, product *domain.Product) (*domain.Product, error)
}
