package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName         = errors.New("product name is required")
	ErrNegativePrice     = errors.New("product price must not be negative")
	ErrNegativeStock     = errors.New("stock quantity must not be negative")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product is the catalog aggregate. Version is the optimistic-concurrency
// counter maintained by the repository: it increases on every committed update
// and a stale version makes UpdateVersioned fail.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	Version       int64
}

// NewProduct validates the invariants and builds a new Product aggregate.
func NewProduct(id int64, name, description string, price decimal.Decimal, stock int) (*Product, error) {
	p := &Product{ID: id, Description: description}
	if err := p.Rename(name); err != nil {
		return nil, err
	}
	if err := p.ChangePrice(price); err != nil {
		return nil, err
	}
	if err := p.SetStock(stock); err != nil {
		return nil, err
	}
	return p, nil
}

// Rename mutates the product name ensuring the invariant.
func (p *Product) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	p.Name = name
	return nil
}

// ChangePrice replaces the unit price, rejecting negative values.
func (p *Product) ChangePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	p.Price = price
	return nil
}

// SetStock overrides the available quantity, rejecting negative values.
func (p *Product) SetStock(quantity int) error {
	if quantity < 0 {
		return ErrNegativeStock
	}
	p.StockQuantity = quantity
	return nil
}

// ReduceStock decrements the available quantity. The stock never goes
// negative: callers get ErrInsufficientStock when the request exceeds it.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.StockQuantity < quantity {
		return ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	return nil
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.StockQuantity < 0 {
		return ErrNegativeStock
	}
	return nil
}
