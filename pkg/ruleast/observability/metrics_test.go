package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a test meter provider and returns its reader.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the counter value of the datapoint carrying key=value.
func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.Emit() == value {
			return dp.Value
		}
	}
	return 0
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordParse(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordParse(ctx, "rule", nil)
	m.RecordParse(ctx, "rule", nil)
	m.RecordParse(ctx, "combined", errors.New("bad"))

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "ruleast.parse.count")
	require.NotNil(t, metric)
	assert.Equal(t, int64(2), sumFor(t, metric, "kind", "rule"))
	assert.Equal(t, int64(1), sumFor(t, metric, "success", "false"))
}

func TestRecordEvaluation(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordEvaluation(ctx, "stored", 2, nil)
	m.RecordEvaluation(ctx, "inline", 1, errors.New("unsupported operator"))
	m.RecordEvaluation(ctx, "stream", 0.5, nil)

	rm := collectMetrics(t, reader)

	count := findMetric(rm, "ruleast.evaluate.count")
	require.NotNil(t, count)
	assert.Equal(t, int64(1), sumFor(t, count, "source", "stored"))
	assert.Equal(t, int64(1), sumFor(t, count, "source", "inline"))
	assert.Equal(t, int64(1), sumFor(t, count, "source", "stream"))

	latency := findMetric(rm, "ruleast.evaluate.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	assert.NotEmpty(t, hist.DataPoints)

	errs := findMetric(rm, "ruleast.evaluate.errors")
	require.NotNil(t, errs)
	assert.Equal(t, int64(0), sumFor(t, errs, "source", "stored"))
	assert.Equal(t, int64(1), sumFor(t, errs, "source", "inline"))
}

func TestRecordStore(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordStore(context.Background(), "save", 512)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "ruleast.store.size_bytes")
	require.NotNil(t, metric)

	hist, ok := metric.Data.(metricdata.Histogram[int64])
	require.True(t, ok, "Expected Histogram type")
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, int64(512), hist.DataPoints[0].Sum)
}
