package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression. Placement always creates orders as
// pending; the fulfillment workflow advances them later.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDelivered Status = "delivered"
)

var (
	ErrInvalidProductID  = errors.New("product id must be greater than zero")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrNoItems           = errors.New("order must contain at least one line item")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

// Line is an order line item. It references a product by id only and carries
// the unit price captured at order time; later price changes on the product
// never alter it.
type Line struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns quantity times the captured unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is the aggregate owning its line items. Items are fixed once the
// order is committed; insertion order follows the request order.
type Order struct {
	ID        int64
	OrderDate time.Time
	Status    Status
	Items     []Line
}

// NewOrder starts an empty pending order stamped with the orchestration time.
func NewOrder(orderDate time.Time) *Order {
	return &Order{OrderDate: orderDate, Status: StatusPending}
}

// AddLine appends a validated line item, preserving request order.
func (o *Order) AddLine(productID int64, quantity int, unitPrice decimal.Decimal) error {
	if productID <= 0 {
		return ErrInvalidProductID
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	o.Items = append(o.Items, Line{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice})
	return nil
}

// Total sums all line totals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Total())
	}
	return total
}

// Validate enforces invariants before the order may be persisted.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range o.Items {
		if item.ProductID <= 0 {
			return ErrInvalidProductID
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if !isValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// Advance moves the order to the next lifecycle state. Only the pending →
// approved → delivered progression is permitted.
func (o *Order) Advance(to Status) error {
	if !isValidStatus(to) {
		return ErrInvalidStatus
	}
	allowed := map[Status]Status{
		StatusPending:  StatusApproved,
		StatusApproved: StatusDelivered,
	}
	if next, ok := allowed[o.Status]; !ok || next != to {
		return ErrInvalidTransition
	}
	o.Status = to
	return nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusApproved, StatusDelivered:
		return true
	default:
		return false
	}
}
