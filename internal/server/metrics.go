package server

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// serviceMetrics counts pipeline activity. Without a configured exporter
// the global meter is a no-op, so recording is always safe.
type serviceMetrics struct {
	captures    metric.Int64Counter
	generations metric.Int64Counter
	failures    metric.Int64Counter
}

func newServiceMetrics() *serviceMetrics {
	meter := otel.Meter("github.com/thebtf/intentify/internal/server")

	captures, _ := meter.Int64Counter("intentify.captures",
		metric.WithDescription("Completed capture operations by channel"))
	generations, _ := meter.Int64Counter("intentify.generations",
		metric.WithDescription("Completed prompt generation calls"))
	failures, _ := meter.Int64Counter("intentify.request_failures",
		metric.WithDescription("Failed capture/generate requests by operation"))

	return &serviceMetrics{
		captures:    captures,
		generations: generations,
		failures:    failures,
	}
}

func (m *serviceMetrics) recordCapture(ctx context.Context, channel string) {
	m.captures.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}

func (m *serviceMetrics) recordGeneration(ctx context.Context) {
	m.generations.Add(ctx, 1)
}

func (m *serviceMetrics) recordFailure(ctx context.Context, operation string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
