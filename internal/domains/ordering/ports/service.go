package ports

import (
	"context"

	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
)

// Service exposes ordering use cases to adapters.
type Service interface {
	// PlaceOrder atomically validates availability, decrements stock, and
	// persists the order, returning the store-assigned order id.
	PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (int64, error)
	GetOrderByID(ctx context.Context, input types.OrderIdentifier) (*types.OrderProjection, error)
	ListOrders(ctx context.Context) ([]*types.OrderProjection, error)
	// AdvanceOrder moves an order along the pending → approved → delivered
	// lifecycle; used by the fulfillment workflow activities.
	AdvanceOrder(ctx context.Context, input types.AdvanceOrderInput) (*types.OrderProjection, error)
}
