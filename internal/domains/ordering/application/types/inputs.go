package types

// OrderLineInput is one requested (product, quantity) pair.
type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

// PlaceOrderInput carries the placement request. IdempotencyKey is optional;
// when present, retries with the same key and payload replay the stored
// result instead of placing a second order.
type PlaceOrderInput struct {
	Lines          []OrderLineInput
	IdempotencyKey string
}

// OrderIdentifier addresses a single order.
type OrderIdentifier struct {
	ID int64
}

// AdvanceOrderInput moves an order to the given lifecycle status.
type AdvanceOrderInput struct {
	ID     int64
	Status string
}
