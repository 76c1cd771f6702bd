package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderinghttpmapper "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/http/mapper"
	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	orderingports "github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
	apierrors "github.com/Apurer/go-order-api-server/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry placement safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the ordering bounded context service
// and the fulfillment orchestrator.
type OrderAPI struct {
	service     orderingports.Service
	fulfillment orderingports.FulfillmentOrchestrator
	responder   *apierrors.ChainedResponder
	logger      *slog.Logger
}

// NewOrderAPI creates an OrderAPI backed by the provided service. The
// orchestrator and logger are optional.
func NewOrderAPI(service orderingports.Service, fulfillment orderingports.FulfillmentOrchestrator, logger *slog.Logger) OrderAPI {
	return OrderAPI{service: service, fulfillment: fulfillment, responder: newResponder(), logger: logger}
}

// Post /v1/orders
// Place a new order
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	var payload orderinghttpmapper.PlaceOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	input := orderinghttpmapper.ToPlaceOrderInput(payload, strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)))
	orderID, err := api.service.PlaceOrder(c.Request.Context(), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	api.startFulfillment(c, orderID)
	c.Header("Location", fmt.Sprintf("/v1/orders/%d", orderID))
	c.JSON(http.StatusCreated, orderinghttpmapper.PlaceOrderResponse{OrderID: orderID})
}

// Get /v1/orders/:orderId
// Find order by ID
func (api *OrderAPI) GetOrderById(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId", api.responder)
	if !ok {
		return
	}
	order, err := api.service.GetOrderByID(c.Request.Context(), types.OrderIdentifier{ID: id})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderinghttpmapper.FromProjection(order))
}

// Get /v1/orders
// List all orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	orders, err := api.service.ListOrders(c.Request.Context())
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderinghttpmapper.FromProjectionList(orders))
}

// startFulfillment kicks off post-placement orchestration. The order is
// already committed, so a start failure is logged, not surfaced.
func (api *OrderAPI) startFulfillment(c *gin.Context, orderID int64) {
	if api.fulfillment == nil {
		return
	}
	if err := api.fulfillment.StartFulfillment(c.Request.Context(), orderID); err != nil && api.logger != nil {
		api.logger.LogAttrs(c.Request.Context(), slog.LevelError, "failed to start order fulfillment",
			slog.Int64("order.id", orderID),
			slog.String("error", err.Error()),
		)
	}
}
