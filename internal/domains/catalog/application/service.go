package application

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
)

// Service orchestrates catalog management use cases. Stock mutation during
// order placement does not go through here: the ordering orchestrator talks to
// the repository inside its own transaction scope.
type Service struct {
	repo ports.Repository
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	existing, err := s.repo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := existing.Rename(product.Name); err != nil {
		return nil, mapError(err)
	}
	existing.Description = product.Description
	if err := existing.ChangePrice(product.Price); err != nil {
		return nil, mapError(err)
	}
	if err := existing.SetStock(product.StockQuantity); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, existing)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

var _ ports.Service = (*Service)(nil)
