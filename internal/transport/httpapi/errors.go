package httpapi

import (
	"errors"

	catalogapp "github.com/Apurer/go-order-api-server/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	orderingapp "github.com/Apurer/go-order-api-server/internal/domains/ordering/application"
	orderingports "github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
	apierrors "github.com/Apurer/go-order-api-server/internal/shared/errors"
)

// newResponder builds the error mapping chain shared by the catalog and
// ordering handlers. Order matters: typed errors carry more context than
// their category sentinels, so they are matched first.
func newResponder() *apierrors.ChainedResponder {
	return apierrors.NewChainedResponder("",
		mapOrderingError,
		mapCatalogError,
	)
}

func mapOrderingError(err error) (apierrors.ProblemDetail, bool) {
	var stockErr *orderingapp.InsufficientStockError
	if errors.As(err, &stockErr) {
		return apierrors.NewInsufficientStockProblem(stockErr.ProductID, stockErr.Requested, stockErr.Available), true
	}
	var notFoundErr *orderingapp.ProductNotFoundError
	if errors.As(err, &notFoundErr) {
		return apierrors.NewNotFoundProblem("product", notFoundErr.ProductID), true
	}
	switch {
	case errors.Is(err, orderingapp.ErrConcurrencyConflict):
		return apierrors.NewConcurrencyConflictProblem(), true
	case errors.Is(err, orderingports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail("idempotency key was already used with a different request body"), true
	case errors.Is(err, orderingapp.ErrInvalidRequest):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, orderingports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapCatalogError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, catalogapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, catalogports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, catalogports.ErrVersionConflict):
		return apierrors.NewConcurrencyConflictProblem(), true
	}
	return apierrors.ProblemDetail{}, false
}
