package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest creates a test tracer provider with an in-memory span recorder.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	// Update the package-level tracer
	tracer = otel.Tracer("ruleast")

	t.Cleanup(func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func TestStartOperationSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	t.Run("names span after operation with rule id", func(t *testing.T) {
		exporter.Reset()
		_, span := sm.StartOperationSpan(context.Background(), "evaluate", "rule_1a2b3c4d")
		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "ruleast.evaluate", spans[0].Name)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
		assert.Contains(t, spans[0].Attributes, attribute.String("rule.id", "rule_1a2b3c4d"))
		assert.Contains(t, spans[0].Attributes, attribute.String("operation", "evaluate"))
	})

	t.Run("omits empty rule id", func(t *testing.T) {
		exporter.Reset()
		_, span := sm.StartOperationSpan(context.Background(), "create", "")
		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		for _, attr := range spans[0].Attributes {
			assert.NotEqual(t, attribute.Key("rule.id"), attr.Key)
		}
	})

	t.Run("records errors", func(t *testing.T) {
		exporter.Reset()
		_, span := sm.StartOperationSpan(context.Background(), "combine", "")
		sm.EndSpanWithError(span, errors.New("empty operand"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "empty operand", spans[0].Status.Description)
		require.NotEmpty(t, spans[0].Events)
		assert.Equal(t, "exception", spans[0].Events[0].Name)
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartOperationSpan(context.Background(), "evaluate", "rule_1")
	sm.AddSpanEvent(ctx, "verdict", attribute.Bool("result", true))
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "verdict", spans[0].Events[0].Name)

	// No span in context
	assert.NotPanics(t, func() { AddSpanEvent(context.Background(), "orphan") })
}

func TestEndSpanWithError_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() { EndSpanWithError(nil, errors.New("x")) })
}

func TestNoopImplementations(t *testing.T) {
	var metrics MetricsRecorder = NoopMetrics{}
	var spans SpanManager = NoopSpanManager{}

	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordParse(ctx, "rule", nil)
		metrics.RecordEvaluation(ctx, "stored", 1, errors.New("x"))
		metrics.RecordStore(ctx, "save", 10)

		got, span := spans.StartOperationSpan(ctx, "evaluate", "rule_1")
		assert.Equal(t, ctx, got)
		assert.False(t, span.IsRecording())
		spans.AddSpanEvent(got, "event")
		spans.EndSpanWithError(span, errors.New("x"))
	})
}
