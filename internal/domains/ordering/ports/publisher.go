package ports

import (
	"context"

	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
)

// EventPublisher pushes ordering domain events to downstream consumers.
// Publishing happens after commit; a publish failure never unwinds the
// placement.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event domain.OrderPlaced) error
}
