package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory product persistence adapter with explicit
// version counters, so the optimistic-concurrency contract holds without a
// database.
type Repository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
}

func NewRepository() *Repository {
	return &Repository{products: map[int64]*domain.Product{}}
}

func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := *product
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	if existing, ok := r.products[clone.ID]; ok {
		clone.Version = existing.Version + 1
	} else if clone.Version == 0 {
		clone.Version = 1
	}
	r.products[clone.ID] = &clone
	saved := clone
	return &saved, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		clone := *product
		list = append(list, &clone)
	}
	return list, nil
}

// UpdateAllVersioned applies a batch of versioned writes all-or-nothing: every
// stored version is checked before anything is written, under one lock. This
// is the commit primitive used by the in-memory Unit of Work.
func (r *Repository) UpdateAllVersioned(_ context.Context, products []*domain.Product) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range products {
		existing, ok := r.products[product.ID]
		if !ok {
			return nil, ports.ErrNotFound
		}
		if existing.Version != product.Version {
			return nil, ports.ErrVersionConflict
		}
	}
	saved := make([]*domain.Product, 0, len(products))
	for _, product := range products {
		clone := *product
		clone.Version++
		r.products[clone.ID] = &clone
		out := clone
		saved = append(saved, &out)
	}
	return saved, nil
}

// UpdateVersioned applies the write only while the stored version still equals
// product.Version, bumping the stored version on success.
func (r *Repository) UpdateVersioned(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := *product
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.products[clone.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if existing.Version != clone.Version {
		return nil, ports.ErrVersionConflict
	}
	clone.Version++
	r.products[clone.ID] = &clone
	saved := clone
	return &saved, nil
}
