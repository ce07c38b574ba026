package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Listener invocation outcomes, used as the "outcome" metric attribute.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeOverrun   = "overrun"
	OutcomeCanceled  = "canceled"
)

// MetricsRecorder records event manager metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records a completed dispatch.
	RecordDispatch(ctx context.Context, eventType string, listeners int, duration time.Duration)

	// RecordListener records one listener invocation and its outcome.
	RecordListener(ctx context.Context, listener, outcome string, duration time.Duration)

	// RecordSchedulingFailure records a failure of the dispatch machinery.
	RecordSchedulingFailure(ctx context.Context, op, category string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches         metric.Int64Counter
	dispatchLatency    metric.Float64Histogram
	listenerCalls      metric.Int64Counter
	listenerLatency    metric.Float64Histogram
	listenerErrors     metric.Int64Counter
	listenerTimeouts   metric.Int64Counter
	schedulingFailures metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.GetMeterProvider())
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(provider metric.MeterProvider) (*otelMetrics, error) {
	meter := provider.Meter("eventmgr")

	dispatches, err := meter.Int64Counter("eventmgr.dispatches",
		metric.WithDescription("Number of completed dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("eventmgr.dispatch.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	listenerCalls, err := meter.Int64Counter("eventmgr.listener.invocations",
		metric.WithDescription("Number of listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	listenerLatency, err := meter.Float64Histogram("eventmgr.listener.latency_ms",
		metric.WithDescription("Listener invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	listenerErrors, err := meter.Int64Counter("eventmgr.listener.errors",
		metric.WithDescription("Number of failed listener invocations"),
	)
	if err != nil {
		return nil, err
	}

	listenerTimeouts, err := meter.Int64Counter("eventmgr.listener.timeouts",
		metric.WithDescription("Number of listener invocations cancelled by timeout"),
	)
	if err != nil {
		return nil, err
	}

	schedulingFailures, err := meter.Int64Counter("eventmgr.scheduling.failures",
		metric.WithDescription("Number of dispatch scheduling failures"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:         dispatches,
		dispatchLatency:    dispatchLatency,
		listenerCalls:      listenerCalls,
		listenerLatency:    listenerLatency,
		listenerErrors:     listenerErrors,
		listenerTimeouts:   listenerTimeouts,
		schedulingFailures: schedulingFailures,
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

// NewMetricsRecorderFor returns a MetricsRecorder bound to a specific provider.
func NewMetricsRecorderFor(provider metric.MeterProvider) (MetricsRecorder, error) {
	m, err := newOtelMetrics(provider)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordDispatch records a dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, eventType string, listeners int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(append(attrs, attribute.Int("listeners", listeners))...))
}

// RecordListener records a listener invocation.
func (m *otelMetrics) RecordListener(ctx context.Context, listener, outcome string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("listener", listener),
		attribute.String("outcome", outcome),
	}

	m.listenerCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.listenerLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	switch outcome {
	case OutcomeFailed:
		m.listenerErrors.Add(ctx, 1, metric.WithAttributes(attrs[0]))
	case OutcomeTimeout:
		m.listenerTimeouts.Add(ctx, 1, metric.WithAttributes(attrs[0]))
	}
}

// RecordSchedulingFailure records a scheduling failure.
func (m *otelMetrics) RecordSchedulingFailure(ctx context.Context, op, category string) {
	m.schedulingFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("category", category),
	))
}
