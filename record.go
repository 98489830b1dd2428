package movetrace

import (
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// SpanRecord is the immutable snapshot of a closed span handed to remote sinks.
type SpanRecord struct {
	TraceID      string            `json:"traceId"`
	SpanID       string            `json:"spanId"`
	ParentSpanID string            `json:"parentSpanId,omitempty"`
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	Service      string            `json:"service,omitempty"`
	StartTime    time.Time         `json:"startTime"`
	EndTime      time.Time         `json:"endTime"`
	DurationMs   float64           `json:"durationMs"`
	Status       string            `json:"status"`
	StatusText   string            `json:"statusText,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// IsRoot reports whether the span had no parent.
func (r SpanRecord) IsRoot() bool {
	return r.ParentSpanID == ""
}

// NewSpanRecord converts a completed SDK span into a SpanRecord.
func NewSpanRecord(s sdktrace.ReadOnlySpan) SpanRecord {
	rec := SpanRecord{
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Name:       s.Name(),
		Kind:       s.SpanKind().String(),
		StartTime:  s.StartTime(),
		EndTime:    s.EndTime(),
		DurationMs: float64(s.EndTime().Sub(s.StartTime())) / float64(time.Millisecond),
		Status:     s.Status().Code.String(),
		StatusText: s.Status().Description,
	}
	if s.Parent().HasSpanID() {
		rec.ParentSpanID = s.Parent().SpanID().String()
	}

	if res := s.Resource(); res != nil {
		if v, ok := res.Set().Value(semconv.ServiceNameKey); ok {
			rec.Service = v.Emit()
		}
	}

	if attrs := s.Attributes(); len(attrs) > 0 {
		rec.Attributes = make(map[string]string, len(attrs))
		for _, kv := range attrs {
			rec.Attributes[string(kv.Key)] = kv.Value.Emit()
		}
	}

	return rec
}

// NewSpanRecords converts a batch of completed spans.
func NewSpanRecords(spans []sdktrace.ReadOnlySpan) []SpanRecord {
	out := make([]SpanRecord, 0, len(spans))
	for _, s := range spans {
		out = append(out, NewSpanRecord(s))
	}

	return out
}
