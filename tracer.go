package movetrace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arloliu/movetrace/internal/tracker"
	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/arloliu/movetrace"

// Tracer creates spans and dispatches completed spans to registered exporters.
//
// The parent of a new span is the span carried by ctx. There is no process-wide
// "current span": callers thread the context returned by StartSpan down the call
// chain, which keeps concurrent requests from ever sharing a parent.
type Tracer interface {
	// StartSpan opens a span named name as a child of the span in ctx, or as a
	// root span when ctx carries none. The returned context carries the new span.
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)

	// RegisterExporter adds a sink for completed spans. Intended for startup.
	RegisterExporter(exp sdktrace.SpanExporter, opts ...ExporterOption)

	// Shutdown flushes pending spans and releases every exporter.
	Shutdown(ctx context.Context) error
}

// ExporterFactory builds a span exporter from telemetry config.
type ExporterFactory func(ctx context.Context, cfg *TelemetryConfig) (sdktrace.SpanExporter, error)

// TracerOption configures an SDKTracer.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	namer     SpanNamer
	clock     clockz.Clock
	logger    *slog.Logger
	mp        metric.MeterProvider
	name      string
	factories map[string]ExporterFactory
}

// WithNamer sets the span namer. Defaults to DefaultNamer.
func WithNamer(n SpanNamer) TracerOption {
	return func(o *tracerOptions) {
		if n != nil {
			o.namer = n
		}
	}
}

// WithClock sets the clock used for span timestamps. Defaults to the real clock.
func WithClock(c clockz.Clock) TracerOption {
	return func(o *tracerOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for exporter failures and lifecycle events.
func WithLogger(l *slog.Logger) TracerOption {
	return func(o *tracerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMeterProvider sets the MeterProvider for tracer metrics.
// Defaults to the global MeterProvider.
func WithMeterProvider(mp metric.MeterProvider) TracerOption {
	return func(o *tracerOptions) {
		if mp != nil {
			o.mp = mp
		}
	}
}

// WithInstrumentationName sets the instrumentation scope name of created spans.
func WithInstrumentationName(name string) TracerOption {
	return func(o *tracerOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithExporterFactory makes exporter name available to OTEL_TRACES_EXPORTER.
func WithExporterFactory(name string, f ExporterFactory) TracerOption {
	return func(o *tracerOptions) {
		if o.factories == nil {
			o.factories = make(map[string]ExporterFactory)
		}
		o.factories[normalizeExporterType(name)] = f
	}
}

func applyTracerOptions(opts []TracerOption) tracerOptions {
	o := tracerOptions{
		namer:  DefaultNamer{},
		clock:  clockz.RealClock,
		logger: slog.Default(),
		name:   instrumentationName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.mp == nil {
		o.mp = otel.GetMeterProvider()
	}

	return o
}

// SDKTracer implements Tracer on top of the OpenTelemetry SDK.
// Safe for concurrent use.
type SDKTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	namer    SpanNamer
	clock    clockz.Clock
	logger   *slog.Logger
	tracker  *tracker.Tracker
	metrics  *tracerMetrics

	mu        sync.Mutex
	exporters []string
	shutdown  bool

	shutdownOnce sync.Once
	shutdownErr  error
}

var _ Tracer = (*SDKTracer)(nil)

// NewTracer wraps provider. A nil provider gets a bare SDK provider.
// No exporters are registered; use RegisterExporter.
func NewTracer(provider *sdktrace.TracerProvider, opts ...TracerOption) *SDKTracer {
	if provider == nil {
		provider = sdktrace.NewTracerProvider()
	}
	o := applyTracerOptions(opts)

	return &SDKTracer{
		provider: provider,
		tracer:   provider.Tracer(o.name),
		namer:    o.namer,
		clock:    o.clock,
		logger:   o.logger,
		tracker:  tracker.New(),
		metrics:  newTracerMetrics(o.mp),
	}
}

// StartSpan opens a span as a child of the span carried by ctx.
func (t *SDKTracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	opts = append([]trace.SpanStartOption{trace.WithTimestamp(t.clock.Now())}, opts...)
	ctx, span := t.tracer.Start(ctx, t.namer.Name(name), opts...)

	traceID := span.SpanContext().TraceID().String()
	t.tracker.Opened(traceID)
	t.metrics.spanStarted(ctx)

	return ctx, &sdkSpan{span: span, tracer: t, traceID: traceID}
}

func (t *SDKTracer) spanEnded(traceID string) {
	t.tracker.Closed(traceID)
	t.metrics.spanEnded(context.Background())
}

// ExporterOption configures how an exporter is attached.
type ExporterOption func(*exporterOptions)

type exporterOptions struct {
	name      string
	sync      bool
	batchOpts []sdktrace.BatchSpanProcessorOption
}

// WithSyncExport delivers completed spans synchronously from End.
// Meant for tests and local debugging; remote sinks should stay batched.
func WithSyncExport() ExporterOption {
	return func(o *exporterOptions) {
		o.sync = true
	}
}

// WithExporterName sets the name used in logs and metrics for the exporter.
func WithExporterName(name string) ExporterOption {
	return func(o *exporterOptions) {
		o.name = name
	}
}

// WithBatchOptions tunes the batch processor of the exporter.
func WithBatchOptions(opts ...sdktrace.BatchSpanProcessorOption) ExporterOption {
	return func(o *exporterOptions) {
		o.batchOpts = append(o.batchOpts, opts...)
	}
}

// RegisterExporter attaches exp behind its own span processor.
// Delivery failures of exp are logged and counted but never reach the caller
// of End, nor any other exporter. Registration after Shutdown is ignored.
func (t *SDKTracer) RegisterExporter(exp sdktrace.SpanExporter, opts ...ExporterOption) {
	if exp == nil {
		return
	}

	var o exporterOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = fmt.Sprintf("%T", exp)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.shutdown {
		t.logger.Warn("exporter registered after shutdown, ignoring", slog.String("exporter", o.name))
		return
	}

	guarded := newIsolatedExporter(o.name, exp, t.logger, t.metrics)

	var sp sdktrace.SpanProcessor
	if o.sync {
		sp = sdktrace.NewSimpleSpanProcessor(guarded)
	} else {
		sp = sdktrace.NewBatchSpanProcessor(guarded, o.batchOpts...)
	}
	t.provider.RegisterSpanProcessor(sp)
	t.exporters = append(t.exporters, o.name)

	t.logger.Debug("span exporter registered",
		slog.String("exporter", o.name),
		slog.Bool("sync", o.sync),
	)
}

// Exporters returns the names of the registered exporters in registration order.
func (t *SDKTracer) Exporters() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.exporters))
	copy(out, t.exporters)

	return out
}

// Provider returns the underlying TracerProvider, e.g. for instrumented clients.
func (t *SDKTracer) Provider() *sdktrace.TracerProvider {
	return t.provider
}

// OpenSpans returns the number of spans started but not yet ended.
func (t *SDKTracer) OpenSpans() int64 {
	return t.tracker.Open()
}

// OpenSpansFor returns the number of open spans in the trace with the given hex ID.
func (t *SDKTracer) OpenSpansFor(traceID string) int {
	return t.tracker.OpenFor(traceID)
}

// OpenTraces returns the number of traces that still have open spans.
func (t *SDKTracer) OpenTraces() int {
	return t.tracker.Traces()
}

// StartedSpans returns the number of spans started since the tracer was created.
func (t *SDKTracer) StartedSpans() uint64 {
	return t.tracker.Started()
}

// ForceFlush exports all completed spans still queued in batch processors.
func (t *SDKTracer) ForceFlush(ctx context.Context) error {
	return t.provider.ForceFlush(ctx)
}

// Shutdown flushes queued spans and shuts every exporter down.
// Subsequent calls return the result of the first.
func (t *SDKTracer) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		t.mu.Lock()
		t.shutdown = true
		t.mu.Unlock()

		if open := t.tracker.Open(); open > 0 {
			t.logger.Warn("tracer shutting down with open spans",
				slog.Int64("open", open),
				slog.Int("traces", t.tracker.Traces()),
			)
		}
		t.logger.Debug("tracer shutting down", slog.Uint64("started", t.tracker.Started()))
		t.shutdownErr = t.provider.Shutdown(ctx)
	})

	return t.shutdownErr
}
