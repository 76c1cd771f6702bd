package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
)

var (
	// ErrInvalidRequest rejects malformed input before any store interaction.
	ErrInvalidRequest = errors.New("order request is invalid")
	// ErrProductNotFound is the category sentinel under ProductNotFoundError.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is the category sentinel under InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConcurrencyConflict reports a lost optimistic-concurrency race. The
	// placement was rolled back; callers may retry, which re-reads fresh state.
	ErrConcurrencyConflict = errors.New("order placement conflicted with a concurrent update")
)

// ProductNotFoundError identifies the missing product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// InsufficientStockError carries the requested versus available quantities.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidProductID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrNoItems) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return err
}
