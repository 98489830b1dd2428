package movetrace

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span is a timed, named unit of work. It is owned by the call frame that started it.
//
// Implementations never panic or return errors: mutating an ended span is a no-op,
// and End may be called any number of times but only the first call takes effect.
type Span interface {
	// SetName replaces the span name. Ignored once the span has ended.
	SetName(name string)

	// SetAttribute tags the span. Ignored once the span has ended.
	SetAttribute(key string, value any)

	// RecordError records err and marks the span failed. Nil errors are ignored.
	RecordError(err error)

	// SetSuccess marks the span as successful.
	SetSuccess()

	// End closes the span and hands it to the registered exporters.
	End()

	// Ended reports whether End has been called.
	Ended() bool

	// SpanContext returns the identifiers of the span.
	SpanContext() trace.SpanContext
}

// sdkSpan adapts an OTel span to Span with single-fire End.
type sdkSpan struct {
	span    trace.Span
	tracer  *SDKTracer
	traceID string
	ended   atomic.Bool
}

var _ Span = (*sdkSpan)(nil)

func (s *sdkSpan) SetName(name string) {
	if name == "" || s.ended.Load() {
		return
	}
	s.span.SetName(name)
}

func (s *sdkSpan) SetAttribute(key string, value any) {
	if s.ended.Load() {
		return
	}
	s.span.SetAttributes(toAttribute(key, value))
}

func (s *sdkSpan) RecordError(err error) {
	if err == nil || s.ended.Load() {
		return
	}
	s.span.RecordError(err, trace.WithTimestamp(s.tracer.clock.Now()))
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *sdkSpan) SetSuccess() {
	if s.ended.Load() {
		return
	}
	s.span.SetStatus(codes.Ok, "")
}

func (s *sdkSpan) End() {
	if !s.ended.CompareAndSwap(false, true) {
		return
	}
	s.span.End(trace.WithTimestamp(s.tracer.clock.Now()))
	s.tracer.spanEnded(s.traceID)
}

func (s *sdkSpan) Ended() bool {
	return s.ended.Load()
}

func (s *sdkSpan) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}

// TraceID returns the trace ID from context, or empty string if none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}

// SpanID returns the span ID from context, or empty string if none.
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasSpanID() {
		return sc.SpanID().String()
	}

	return ""
}

// toAttribute converts a Go value into an OTel attribute.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case nil:
		return attribute.String(key, "")
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int32:
		return attribute.Int64(key, int64(v))
	case int64:
		return attribute.Int64(key, v)
	case uint32:
		return attribute.Int64(key, int64(v))
	case float32:
		return attribute.Float64(key, float64(v))
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case []int:
		return attribute.IntSlice(key, v)
	case []bool:
		return attribute.BoolSlice(key, v)
	case time.Duration:
		return attribute.String(key, v.String())
	case error:
		return attribute.String(key, v.Error())
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
