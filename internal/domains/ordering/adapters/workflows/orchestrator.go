package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
	orderworkflows "github.com/Apurer/go-order-api-server/internal/durable/temporal/workflows/ordering"
)

var (
	_ ports.FulfillmentOrchestrator = (*TemporalFulfillment)(nil)
	_ ports.FulfillmentOrchestrator = (*InlineFulfillment)(nil)
)

// TemporalFulfillment starts order fulfillment workflows on a Temporal cluster.
type TemporalFulfillment struct {
	client    client.Client
	taskQueue string
}

// NewTemporalFulfillment wires a Temporal client into the orchestrator.
func NewTemporalFulfillment(c client.Client) *TemporalFulfillment {
	return &TemporalFulfillment{client: c, taskQueue: orderworkflows.OrderFulfillmentTaskQueue}
}

// StartFulfillment kicks off the durable workflow that advances the order.
// The workflow ID is derived from the order ID, so a duplicate start for the
// same order joins the existing execution instead of racing it.
func (o *TemporalFulfillment) StartFulfillment(ctx context.Context, orderID int64) error {
	if o == nil || o.client == nil {
		return errors.New("temporal fulfillment not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("order-fulfillment-%d", orderID),
		TaskQueue: o.taskQueue,
	}
	_, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderFulfillmentWorkflow,
		orderworkflows.OrderFulfillmentWorkflowInput{OrderID: orderID, TraceID: workflowTraceComponent(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

// InlineFulfillment advances the order synchronously without Temporal, useful
// for tests or dev fallbacks.
type InlineFulfillment struct {
	service ports.Service
}

// NewInlineFulfillment wraps the ordering service for synchronous execution.
func NewInlineFulfillment(service ports.Service) *InlineFulfillment {
	return &InlineFulfillment{service: service}
}

// StartFulfillment applies both lifecycle transitions in-process.
func (o *InlineFulfillment) StartFulfillment(ctx context.Context, orderID int64) error {
	if o == nil || o.service == nil {
		return errors.New("inline fulfillment not configured")
	}
	for _, status := range []domain.Status{domain.StatusApproved, domain.StatusDelivered} {
		if _, err := o.service.AdvanceOrder(ctx, types.AdvanceOrderInput{ID: orderID, Status: string(status)}); err != nil {
			return err
		}
	}
	return nil
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
