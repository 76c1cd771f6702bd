package ports

import (
	"context"

	"github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
)

// Service exposes catalog management use cases to adapters.
type Service interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}
