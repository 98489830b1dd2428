package movetrace

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// newRecordingTracer returns a tracer whose ended spans are kept by a SpanRecorder.
func newRecordingTracer(t *testing.T, clock clockz.Clock) (*SDKTracer, *tracetest.SpanRecorder) {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(rec),
		sdktrace.WithResource(resource.NewSchemaless(semconv.ServiceName("moves-api"))),
	)
	tracer := NewTracer(tp, WithLogger(discardLogger), WithClock(clock))
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	return tracer, rec
}

func TestNewSpanRecord(t *testing.T) {
	clock := clockz.NewFakeClock()
	tracer, rec := newRecordingTracer(t, clock)

	ctx, root := tracer.StartSpan(context.Background(), "GET /api/v1", trace.WithSpanKind(trace.SpanKindServer))
	_, dao := tracer.StartSpan(ctx, "lookup moves")
	dao.SetAttribute("move", "windmill")
	dao.SetAttribute("found", true)
	clock.Advance(1500 * time.Microsecond)
	dao.RecordError(errors.New("move not found"))
	dao.End()
	root.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)

	records := NewSpanRecords(ended)
	require.Len(t, records, 2)

	daoRec, rootRec := records[0], records[1]

	assert.True(t, rootRec.IsRoot())
	assert.Equal(t, "server", rootRec.Kind)
	assert.Equal(t, "moves-api", rootRec.Service)

	assert.False(t, daoRec.IsRoot())
	assert.Equal(t, rootRec.SpanID, daoRec.ParentSpanID)
	assert.Equal(t, rootRec.TraceID, daoRec.TraceID)
	assert.Equal(t, "lookup moves", daoRec.Name)
	assert.Equal(t, "internal", daoRec.Kind)
	assert.InDelta(t, 1.5, daoRec.DurationMs, 1e-9)
	assert.Equal(t, "Error", daoRec.Status)
	assert.Equal(t, "move not found", daoRec.StatusText)
	assert.Equal(t, map[string]string{"move": "windmill", "found": "true"}, daoRec.Attributes)
}

func TestSpanRecord_JSON(t *testing.T) {
	clock := clockz.NewFakeClock()
	tracer, rec := newRecordingTracer(t, clock)

	_, span := tracer.StartSpan(context.Background(), "GET /api/v1")
	span.End()

	data, err := json.Marshal(NewSpanRecord(rec.Ended()[0]))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "traceId")
	assert.Contains(t, fields, "spanId")
	assert.Contains(t, fields, "durationMs")
	assert.NotContains(t, fields, "parentSpanId")
	assert.NotContains(t, fields, "attributes")
	assert.Equal(t, "GET /api/v1", fields["name"])
}
