package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	orderactivities "github.com/Apurer/go-order-api-server/internal/platform/temporal/activities/ordering"
)

// RunOrderFulfillmentSequence advances an order through its lifecycle, one
// activity per transition, and returns the final projection.
func RunOrderFulfillmentSequence(ctx workflow.Context, orderID int64) (*types.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order fulfillment sequence started", "orderId", orderID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
			// Lifecycle violations never heal on retry.
			NonRetryableErrorTypes: []string{"InvalidRequest"},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var projection types.OrderProjection
	for _, status := range []domain.Status{domain.StatusApproved, domain.StatusDelivered} {
		input := types.AdvanceOrderInput{ID: orderID, Status: string(status)}
		if err := workflow.ExecuteActivity(ctx, orderactivities.AdvanceOrderActivityName, input).Get(ctx, &projection); err != nil {
			logger.Error("order fulfillment sequence failed", "orderId", orderID, "status", status, "error", err)
			return nil, err
		}
	}
	logger.Info("order fulfillment sequence completed", "orderId", projection.ID, "status", projection.Status)
	return &projection, nil
}
