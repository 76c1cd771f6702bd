package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	catalogpostgres "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork pins product and order writes to one database transaction. The
// version check in the product repository's compare-and-swap update is what
// rejects lost updates; on any error GORM rolls the transaction back, so no
// partial placement is ever visible.
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork wires a PostgreSQL-backed transaction scope. Caller manages DB lifecycle.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Execute runs fn inside one transaction; a nil return commits, anything else
// rolls back.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(tx ports.TxContext) error) error {
	if u == nil || u.db == nil {
		return errors.New("postgres unit of work not configured")
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txScope{tx: tx})
	})
}

type txScope struct {
	tx *gorm.DB
}

var _ ports.TxContext = (*txScope)(nil)

func (s *txScope) Products() catalogports.Repository {
	return catalogpostgres.NewRepository(s.tx)
}

func (s *txScope) Orders() ports.Repository {
	return NewRepository(s.tx)
}
