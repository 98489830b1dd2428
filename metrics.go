package movetrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// tracerMetrics holds the instruments recorded by SDKTracer.
type tracerMetrics struct {
	started  metric.Int64Counter
	open     metric.Int64UpDownCounter
	failures metric.Int64Counter
}

func newTracerMetrics(mp metric.MeterProvider) *tracerMetrics {
	meter := mp.Meter(instrumentationName)
	m := &tracerMetrics{}

	var err error
	m.started, err = meter.Int64Counter("movetrace.spans.started",
		metric.WithDescription("Spans started"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		otel.Handle(err)
		m.started = noop.Int64Counter{}
	}

	m.open, err = meter.Int64UpDownCounter("movetrace.spans.open",
		metric.WithDescription("Spans started and not yet ended"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		otel.Handle(err)
		m.open = noop.Int64UpDownCounter{}
	}

	m.failures, err = meter.Int64Counter("movetrace.exporter.failures",
		metric.WithDescription("Span batches an exporter failed to deliver"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		otel.Handle(err)
		m.failures = noop.Int64Counter{}
	}

	return m
}

func (m *tracerMetrics) spanStarted(ctx context.Context) {
	m.started.Add(ctx, 1)
	m.open.Add(ctx, 1)
}

func (m *tracerMetrics) spanEnded(ctx context.Context) {
	m.open.Add(ctx, -1)
}

func (m *tracerMetrics) exportFailed(ctx context.Context, exporter string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("exporter", exporter)))
}
