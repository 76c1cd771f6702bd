package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-api-server/internal/domains/ordering/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// DefaultTopic is the stream carrying placement events.
const DefaultTopic = "ordering.order.placed"

// Publisher pushes OrderPlaced events to Kafka. Failures are logged, not
// propagated: the placement already committed when publishing happens.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher wires a Kafka writer for the given brokers.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

// Close flushes and releases the writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

type orderPlacedMessage struct {
	Event      string            `json:"event"`
	OccurredAt time.Time         `json:"occurredAt"`
	OrderID    int64             `json:"orderId"`
	Lines      []orderPlacedLine `json:"lines"`
	Total      decimal.Decimal   `json:"total"`
}

type orderPlacedLine struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// PublishOrderPlaced serializes the event and writes it keyed by order id.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, event domain.OrderPlaced) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka publisher not configured")
	}
	message := orderPlacedMessage{
		Event:      event.EventName(),
		OccurredAt: event.OccurredAt(),
		OrderID:    event.OrderID,
		Total:      event.Total,
	}
	for _, line := range event.Lines {
		message.Lines = append(message.Lines, orderPlacedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	payload, err := json.Marshal(message)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to encode order placed event",
			slog.Int64("order.id", event.OrderID), slog.String("error", err.Error()))
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: payload,
	})
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to publish order placed event",
			slog.Int64("order.id", event.OrderID), slog.String("error", err.Error()))
		return err
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "order placed event published",
		slog.Int64("order.id", event.OrderID))
	return nil
}
