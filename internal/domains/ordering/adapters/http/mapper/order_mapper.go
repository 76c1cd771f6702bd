package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
)

// OrderLineRequest is one requested (product, quantity) pair on the wire.
type OrderLineRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// PlaceOrderRequest is the transport-layer placement payload.
type PlaceOrderRequest struct {
	Items []OrderLineRequest `json:"items"`
}

// PlaceOrderResponse carries the store-assigned order id back to the client.
type PlaceOrderResponse struct {
	OrderID int64 `json:"orderId"`
}

// OrderLineResponse is the read-model line shape with its computed total.
type OrderLineResponse struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderResponse is the read-model order shape.
type OrderResponse struct {
	ID        int64               `json:"id"`
	OrderDate time.Time           `json:"orderDate"`
	Status    string              `json:"status"`
	Items     []OrderLineResponse `json:"items"`
	Total     decimal.Decimal     `json:"total"`
}

// ToPlaceOrderInput converts the wire payload into the application input.
func ToPlaceOrderInput(request PlaceOrderRequest, idempotencyKey string) types.PlaceOrderInput {
	input := types.PlaceOrderInput{
		Lines:          make([]types.OrderLineInput, 0, len(request.Items)),
		IdempotencyKey: idempotencyKey,
	}
	for _, item := range request.Items {
		input.Lines = append(input.Lines, types.OrderLineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return input
}

// FromProjection converts the read model to the transport representation.
func FromProjection(projection *types.OrderProjection) OrderResponse {
	if projection == nil {
		return OrderResponse{}
	}
	response := OrderResponse{
		ID:        projection.ID,
		OrderDate: projection.OrderDate,
		Status:    projection.Status,
		Items:     make([]OrderLineResponse, 0, len(projection.Items)),
		Total:     projection.Total,
	}
	for _, item := range projection.Items {
		response.Items = append(response.Items, OrderLineResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return response
}

// FromProjectionList converts a list of read models.
func FromProjectionList(projections []*types.OrderProjection) []OrderResponse {
	responses := make([]OrderResponse, 0, len(projections))
	for _, projection := range projections {
		responses = append(responses, FromProjection(projection))
	}
	return responses
}
