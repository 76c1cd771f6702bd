package ordering

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	orderingports "github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

const (
	// AdvanceOrderActivityName moves an order one step along its lifecycle.
	AdvanceOrderActivityName = "ordering.activities.AdvanceOrder"
)

// Activities groups activities that operate on the ordering bounded context.
type Activities struct {
	service orderingports.Service
}

// NewActivities wires the ordering service into the Temporal activities bundle.
func NewActivities(service orderingports.Service) *Activities {
	return &Activities{service: service}
}

// AdvanceOrder transitions an order to the requested status and returns its projection.
func (a *Activities) AdvanceOrder(ctx context.Context, input types.AdvanceOrderInput) (*types.OrderProjection, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order advance activity not initialized", "orderId", input.ID)
		return nil, errors.New("order advance activity not initialized")
	}
	logger.Info("AdvanceOrder activity started", "orderId", input.ID, "status", input.Status)
	projection, err := a.service.AdvanceOrder(ctx, input)
	if err != nil {
		logger.Error("AdvanceOrder activity failed", "orderId", input.ID, "status", input.Status, "error", err)
		return nil, err
	}
	logger.Info("AdvanceOrder activity completed", "orderId", projection.ID, "status", projection.Status)
	return projection, nil
}
