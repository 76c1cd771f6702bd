package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderPlacedLine mirrors a committed line item inside the placement event.
type OrderPlacedLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// OrderPlaced is raised after a placement transaction commits.
type OrderPlaced struct {
	BaseEvent
	OrderID int64
	Lines   []OrderPlacedLine
	Total   decimal.Decimal
}

// EventName returns the event type identifier.
func (e OrderPlaced) EventName() string {
	return "ordering.order.placed"
}

// OrderStatusChanged is raised when the fulfillment workflow advances an order.
type OrderStatusChanged struct {
	BaseEvent
	OrderID    int64
	FromStatus Status
	ToStatus   Status
}

// EventName returns the event type identifier.
func (e OrderStatusChanged) EventName() string {
	return "ordering.order.status_changed"
}
