package ports

import (
	"context"

	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
)

// TxContext gives the callback transaction-scoped access to the stores. Every
// read and write issued through it is pinned to one underlying transaction, so
// product reads observe a snapshot consistent with the writes that follow.
type TxContext interface {
	Products() catalogports.Repository
	Orders() Repository
}

// UnitOfWork runs a function inside a single transactional scope. A nil return
// from fn commits all staged changes atomically; any error (including
// catalogports.ErrVersionConflict from a lost optimistic-concurrency race, or
// a context cancellation) rolls everything back, leaving stored state exactly
// as before.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(tx TxContext) error) error
}
