package observability

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records rule service metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordParse records compilation of a rule ("rule") or a combination ("combined").
	RecordParse(ctx context.Context, kind string, err error)

	// RecordEvaluation records an evaluation with its duration and error status.
	// Source is "stored" for rules loaded by ID, "inline" for submitted trees,
	// and "stream" for records sent over a WebSocket.
	RecordEvaluation(ctx context.Context, source string, durationMs float64, err error)

	// RecordStore records the payload size of a store operation.
	RecordStore(ctx context.Context, op string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	parses      metric.Int64Counter
	evaluations metric.Int64Counter
	evalLatency metric.Float64Histogram
	evalErrors  metric.Int64Counter
	storeSize   metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the process-wide instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("ruleast")

	parses, err := meter.Int64Counter("ruleast.parse.count",
		metric.WithDescription("Number of rule compilations"),
	)
	if err != nil {
		return nil, err
	}

	evaluations, err := meter.Int64Counter("ruleast.evaluate.count",
		metric.WithDescription("Number of rule evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("ruleast.evaluate.latency_ms",
		metric.WithDescription("Rule evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("ruleast.evaluate.errors",
		metric.WithDescription("Number of failed rule evaluations"),
	)
	if err != nil {
		return nil, err
	}

	storeSize, err := meter.Int64Histogram("ruleast.store.size_bytes",
		metric.WithDescription("Stored rule size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		parses:      parses,
		evaluations: evaluations,
		evalLatency: evalLatency,
		evalErrors:  evalErrors,
		storeSize:   storeSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordParse records a rule compilation.
func (m *otelMetrics) RecordParse(ctx context.Context, kind string, err error) {
	m.parses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", err == nil),
	))
}

// RecordEvaluation records a rule evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, source string, durationMs float64, err error) {
	attrs := metric.WithAttributes(attribute.String("source", source))

	m.evaluations.Add(ctx, 1, attrs)
	m.evalLatency.Record(ctx, durationMs, attrs)

	if err != nil {
		m.evalErrors.Add(ctx, 1, attrs)
	}
}

// RecordStore records a store operation.
func (m *otelMetrics) RecordStore(ctx context.Context, op string, sizeBytes int64) {
	m.storeSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("op", op)))
}
