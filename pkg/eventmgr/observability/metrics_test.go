package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader, provider
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

// sumFor returns the counter value for the datapoint carrying key=value.
func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	_, provider := setupMetricsTest(t)
	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	defer otel.SetMeterProvider(original)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordListener(t *testing.T) {
	reader, provider := setupMetricsTest(t)
	m, err := NewMetricsRecorderFor(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordListener(ctx, "audit", OutcomeDelivered, 5*time.Millisecond)
	m.RecordListener(ctx, "audit", OutcomeDelivered, 7*time.Millisecond)
	m.RecordListener(ctx, "broken", OutcomeFailed, time.Millisecond)
	m.RecordListener(ctx, "slow", OutcomeTimeout, 50*time.Millisecond)

	rm := collectMetrics(t, reader)

	calls := findMetric(rm, "eventmgr.listener.invocations")
	require.NotNil(t, calls)
	assert.Equal(t, int64(2), sumFor(t, calls, "listener", "audit"))

	errs := findMetric(rm, "eventmgr.listener.errors")
	require.NotNil(t, errs)
	assert.Equal(t, int64(1), sumFor(t, errs, "listener", "broken"))
	assert.Equal(t, int64(0), sumFor(t, errs, "listener", "audit"))

	timeouts := findMetric(rm, "eventmgr.listener.timeouts")
	require.NotNil(t, timeouts)
	assert.Equal(t, int64(1), sumFor(t, timeouts, "listener", "slow"))

	latency := findMetric(rm, "eventmgr.listener.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	assert.NotEmpty(t, hist.DataPoints)
}

func TestRecordDispatch(t *testing.T) {
	reader, provider := setupMetricsTest(t)
	m, err := NewMetricsRecorderFor(provider)
	require.NoError(t, err)

	m.RecordDispatch(context.Background(), "string", 2, 3*time.Millisecond)

	rm := collectMetrics(t, reader)
	dispatches := findMetric(rm, "eventmgr.dispatches")
	require.NotNil(t, dispatches)
	assert.Equal(t, int64(1), sumFor(t, dispatches, "event_type", "string"))
	assert.NotNil(t, findMetric(rm, "eventmgr.dispatch.latency_ms"))
}

func TestRecordSchedulingFailure(t *testing.T) {
	reader, provider := setupMetricsTest(t)
	m, err := NewMetricsRecorderFor(provider)
	require.NoError(t, err)

	m.RecordSchedulingFailure(context.Background(), "schedule", "recoverable")

	rm := collectMetrics(t, reader)
	failures := findMetric(rm, "eventmgr.scheduling.failures")
	require.NotNil(t, failures)
	assert.Equal(t, int64(1), sumFor(t, failures, "category", "recoverable"))
}
