package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-order-api-server/internal/domains/ordering/application"
	types "github.com/Apurer/go-order-api-server/internal/domains/ordering/application/types"
	"github.com/Apurer/go-order-api-server/internal/domains/ordering/ports"
)

const tracerName = "github.com/Apurer/go-order-api-server/internal/domains/ordering/adapters/observability/service"

// Service decorates the ordering application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// PlaceOrder runs the placement use case and records its outcome.
func (s *Service) PlaceOrder(ctx context.Context, input types.PlaceOrderInput) (int64, error) {
	ctx, span := s.startSpan(ctx, "Service.PlaceOrder", attribute.Int("order.line.count", len(input.Lines)))
	defer span.End()

	orderID, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, rejectionAttr(err))
		return 0, s.handleError(ctx, span, err, "failed to place order")
	}
	span.SetAttributes(attribute.Int64("order.id", orderID))
	s.metrics.recordPlaced(ctx)
	s.logInfo(ctx, "order placed", slog.Int64("order.id", orderID), slog.Int("order.line.count", len(input.Lines)))
	return orderID, nil
}

// GetOrderByID loads a single order projection.
func (s *Service) GetOrderByID(ctx context.Context, input types.OrderIdentifier) (*types.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrderByID", attribute.Int64("order.id", input.ID))
	defer span.End()

	result, err := s.inner.GetOrderByID(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", input.ID))
	}
	return result, nil
}

// ListOrders returns all order projections.
func (s *Service) ListOrders(ctx context.Context) ([]*types.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.result.count", len(result)))
	return result, nil
}

// AdvanceOrder moves an order along its lifecycle.
func (s *Service) AdvanceOrder(ctx context.Context, input types.AdvanceOrderInput) (*types.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.AdvanceOrder", attribute.Int64("order.id", input.ID))
	defer span.End()

	result, err := s.inner.AdvanceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to advance order", slog.Int64("order.id", input.ID))
	}
	s.logInfo(ctx, "order advanced", slog.Int64("order.id", result.ID), slog.String("order.status", result.Status))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

func rejectionAttr(err error) attribute.KeyValue {
	switch {
	case errors.Is(err, application.ErrConcurrencyConflict):
		return attribute.String("order.rejection", "concurrency_conflict")
	case errors.Is(err, application.ErrInsufficientStock):
		return attribute.String("order.rejection", "insufficient_stock")
	case errors.Is(err, application.ErrProductNotFound):
		return attribute.String("order.rejection", "product_not_found")
	case errors.Is(err, application.ErrInvalidRequest):
		return attribute.String("order.rejection", "invalid_request")
	default:
		return attribute.String("order.rejection", "internal")
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("ordering.service.placed", metric.WithDescription("Number of orders placed"))
	ordersRejected, _ := m.Int64Counter("ordering.service.rejected", metric.WithDescription("Number of rejected placement attempts"))
	return serviceMetrics{
		ordersPlaced:   ordersPlaced,
		ordersRejected: ordersRejected,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context) { addCounter(ctx, m.ordersPlaced, 1) }

func (m serviceMetrics) recordRejected(ctx context.Context, attrs ...attribute.KeyValue) {
	addCounter(ctx, m.ordersRejected, 1, attrs...)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
