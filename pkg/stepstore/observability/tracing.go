package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the stepstore tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("stepstore")

// Span names.
const (
	SpanSave    = "stepstore.save"
	SpanRestore = "stepstore.restore"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartSaveSpan starts a span for one save, including eviction.
	StartSaveSpan(ctx context.Context, location, prefix, step string) (context.Context, trace.Span)

	// StartRestoreSpan starts a span for one restore.
	StartRestoreSpan(ctx context.Context, location, prefix string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
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

// StartSaveSpan starts a span for a save.
func (m *otelSpanManager) StartSaveSpan(ctx context.Context, location, prefix, step string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanSave,
		trace.WithAttributes(
			attribute.String("checkpoint.location", location),
			attribute.String("checkpoint.prefix", prefix),
			attribute.String("checkpoint.step", step),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRestoreSpan starts a span for a restore.
func (m *otelSpanManager) StartRestoreSpan(ctx context.Context, location, prefix string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanRestore,
		trace.WithAttributes(
			attribute.String("checkpoint.location", location),
			attribute.String("checkpoint.prefix", prefix),
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
	AddSpanEvent(ctx, name, attrs...)
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

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
