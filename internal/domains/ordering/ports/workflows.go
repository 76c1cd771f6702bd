package ports

import "context"

// FulfillmentOrchestrator starts the post-placement fulfillment flow that
// advances order status. Implementations may run durably (Temporal) or inline.
type FulfillmentOrchestrator interface {
	StartFulfillment(ctx context.Context, orderID int64) error
}
