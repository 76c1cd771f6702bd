package ordering

import (
	"go.temporal.io/sdk/workflow"

	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	"github.com/Apurer/go-order-api-server/internal/durable/temporal/sequences"
)

const (
	// OrderFulfillmentWorkflowName is the public identifier for registering the workflow.
	OrderFulfillmentWorkflowName = "ordering.workflows.Fulfillment"
	// OrderFulfillmentTaskQueue is the queue consumed by the worker processing order workflows.
	OrderFulfillmentTaskQueue = "ORDER_FULFILLMENT"
)

// OrderFulfillmentWorkflowInput captures the payload required to fulfill a placed order.
type OrderFulfillmentWorkflowInput struct {
	OrderID int64
	TraceID string
}

// OrderFulfillmentWorkflow drives a placed order through approval and delivery.
func OrderFulfillmentWorkflow(ctx workflow.Context, input OrderFulfillmentWorkflowInput) (*types.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderFulfillmentWorkflow started", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	projection, err := sequences.RunOrderFulfillmentSequence(ctx, input.OrderID)
	if err != nil {
		logger.Error("OrderFulfillmentWorkflow failed", withTraceID(input.TraceID, "orderId", input.OrderID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderFulfillmentWorkflow completed", withTraceID(input.TraceID, "orderId", projection.ID, "status", projection.Status)...)
	return projection, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
