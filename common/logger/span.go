package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "basegraph.app/insight"

// Span attribute keys shared by the engines and the worker.
const (
	AttrWorkspaceID     = attribute.Key("insight.workspace_id")
	AttrTaskType        = attribute.Key("insight.task_type")
	AttrInsightCategory = attribute.Key("insight.category")
	AttrAttempt         = attribute.Key("insight.attempt")
	AttrResultCount     = attribute.Key("insight.result_count")
)

// SpanContext pairs a span with the context that carries it.
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan creates a child of the current trace context. End must be called.
//
//	sc := logger.StartSpan(ctx, "analytics.analyze_debt", logger.AttrWorkspaceID.String(id))
//	defer sc.End()
//	ctx = sc.Context()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) *SpanContext {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
	return &SpanContext{ctx: ctx, span: span}
}

// StartSpanFromTraceID continues the trace of whoever enqueued a task. The producer's trace id
// becomes the remote parent and a link. Empty or malformed ids start a fresh root span.
func StartSpanFromTraceID(ctx context.Context, traceIDHex string, name string, attrs ...attribute.KeyValue) *SpanContext {
	opts := []trace.SpanStartOption{trace.WithAttributes(attrs...)}

	if traceID, err := trace.TraceIDFromHex(traceIDHex); err == nil {
		remote := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
		ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

// End is idempotent.
func (sc *SpanContext) End() {
	if sc.span != nil {
		sc.span.End()
	}
}

// RecordError records err as an event without failing the span. Used for partial failures
// such as one collaborator being down while the rest of the result is still returned.
func (sc *SpanContext) RecordError(err error) {
	if sc.span != nil && err != nil {
		sc.span.RecordError(err)
	}
}

// Fail records err and marks the span as errored.
func (sc *SpanContext) Fail(err error) {
	if sc.span == nil || err == nil {
		return
	}
	sc.span.RecordError(err)
	sc.span.SetStatus(codes.Error, err.Error())
}

func (sc *SpanContext) SetAttributes(attrs ...attribute.KeyValue) {
	if sc.span != nil {
		sc.span.SetAttributes(attrs...)
	}
}

func (sc *SpanContext) Span() trace.Span {
	return sc.span
}
