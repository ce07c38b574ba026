package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("eventmgr")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDispatchSpan starts a span covering one dispatch.
	StartDispatchSpan(ctx context.Context, dispatchID, eventType string) (context.Context, trace.Span)

	// StartListenerSpan starts a span for one listener invocation.
	// The listener span should be a child of the dispatch span.
	StartListenerSpan(ctx context.Context, listener string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartDispatchSpan starts a dispatch span.
func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, dispatchID, eventType string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventmgr.dispatch",
		trace.WithAttributes(
			attribute.String("dispatch.id", dispatchID),
			attribute.String("event.type", eventType),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

// StartListenerSpan starts a listener span.
func (m *otelSpanManager) StartListenerSpan(ctx context.Context, listener string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventmgr.listener",
		trace.WithAttributes(
			attribute.String("listener.name", listener),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
