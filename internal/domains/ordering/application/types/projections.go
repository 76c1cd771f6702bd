package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
)

// OrderLineProjection is the read-side view of one line item, including the
// computed line total.
type OrderLineProjection struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// OrderProjection is the single typed read model for orders: identity, date,
// status, and line items with computed line and order totals.
type OrderProjection struct {
	ID        int64
	OrderDate time.Time
	Status    string
	Items     []OrderLineProjection
	Total     decimal.Decimal
}

// ProjectOrder maps an order aggregate onto the read model.
func ProjectOrder(order *domain.Order) *OrderProjection {
	if order == nil {
		return nil
	}
	projection := &OrderProjection{
		ID:        order.ID,
		OrderDate: order.OrderDate,
		Status:    string(order.Status),
		Items:     make([]OrderLineProjection, 0, len(order.Items)),
		Total:     order.Total(),
	}
	for _, item := range order.Items {
		projection.Items = append(projection.Items, OrderLineProjection{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.Total(),
		})
	}
	return projection
}

// ProjectOrders maps a list of aggregates onto read models.
func ProjectOrders(orders []*domain.Order) []*OrderProjection {
	projections := make([]*OrderProjection, 0, len(orders))
	for _, order := range orders {
		projections = append(projections, ProjectOrder(order))
	}
	return projections
}
