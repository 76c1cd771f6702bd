package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-order-api-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-api-server/internal/domains/catalog/ports"
)

const tracerName = "github.com/Apurer/go-order-api-server/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog application port with tracing, logging, and metrics.
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

// CreateProduct persists a new product with instrumentation.
func (s *Service) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateProduct")
	defer span.End()

	result, err := s.inner.CreateProduct(ctx, product)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create product")
	}
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "product created", slog.Int64("product.id", result.ID), slog.Int("product.stock", result.StockQuantity))
	return result, nil
}

// UpdateProduct overrides an existing product with new state.
func (s *Service) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	var attrs []attribute.KeyValue
	if product != nil {
		attrs = append(attrs, attribute.Int64("product.id", product.ID))
	}
	ctx, span := s.startSpan(ctx, "Service.UpdateProduct", attrs...)
	defer span.End()

	result, err := s.inner.UpdateProduct(ctx, product)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update product")
	}
	s.metrics.recordUpdated(ctx)
	s.logInfo(ctx, "product updated", slog.Int64("product.id", result.ID), slog.Int64("product.version", result.Version))
	return result, nil
}

// GetProductByID loads a single product aggregate.
func (s *Service) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Service.GetProductByID", attribute.Int64("product.id", id))
	defer span.End()

	result, err := s.inner.GetProductByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.Int64("product.id", id))
	}
	return result, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteProduct", attribute.Int64("product.id", id))
	defer span.End()

	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete product", slog.Int64("product.id", id))
	}
	s.metrics.recordDeleted(ctx)
	s.logInfo(ctx, "product deleted", slog.Int64("product.id", id))
	return nil
}

// ListProducts returns the whole catalog.
func (s *Service) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.startSpan(ctx, "Service.ListProducts")
	defer span.End()

	result, err := s.inner.ListProducts(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list products")
	}
	span.SetAttributes(attribute.Int("product.result.count", len(result)))
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

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	productsCreated metric.Int64Counter
	productsUpdated metric.Int64Counter
	productsDeleted metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	productsCreated, _ := m.Int64Counter("catalog.service.created", metric.WithDescription("Number of products created"))
	productsUpdated, _ := m.Int64Counter("catalog.service.updated", metric.WithDescription("Number of products updated"))
	productsDeleted, _ := m.Int64Counter("catalog.service.deleted", metric.WithDescription("Number of products deleted"))
	return serviceMetrics{
		productsCreated: productsCreated,
		productsUpdated: productsUpdated,
		productsDeleted: productsDeleted,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context) { addCounter(ctx, m.productsCreated, 1) }
func (m serviceMetrics) recordUpdated(ctx context.Context) { addCounter(ctx, m.productsUpdated, 1) }
func (m serviceMetrics) recordDeleted(ctx context.Context) { addCounter(ctx, m.productsDeleted, 1) }

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
