package movetrace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNormalizeExporterType(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "otlp"},
		{name: "stdout", input: "stdout", want: "console"},
		{name: "noop", input: "noop", want: "none"},
		{name: "nop", input: " nop ", want: "none"},
		{name: "mixed case", input: "OTLP", want: "otlp"},
		{name: "passthrough", input: "nats", want: "nats"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeExporterType(tt.input))
		})
	}
}

// fakeOpt records which constructor of an option set was used.
type fakeOpt struct {
	kind string
	val  string
}

var fakeOptions = otlpOptions[fakeOpt]{
	endpoint:    func(v string) fakeOpt { return fakeOpt{kind: "endpoint", val: v} },
	endpointURL: func(v string) fakeOpt { return fakeOpt{kind: "endpointURL", val: v} },
	headers:     func(map[string]string) fakeOpt { return fakeOpt{kind: "headers"} },
	timeout:     func(d time.Duration) fakeOpt { return fakeOpt{kind: "timeout", val: d.String()} },
	insecure:    func() fakeOpt { return fakeOpt{kind: "insecure"} },
	gzip:        func() fakeOpt { return fakeOpt{kind: "gzip"} },
}

func optKinds(opts []fakeOpt) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.kind)
	}

	return out
}

func TestOTLPOptions_Build(t *testing.T) {
	target := otlpTarget{
		endpoint: "http://collector:4318/v1/traces",
		headers:  map[string]string{"authorization": "token"},
		timeout:  5 * time.Second,
		insecure: true,
		gzip:     true,
	}

	opts := fakeOptions.build(target)
	assert.Equal(t, []string{"endpointURL", "headers", "timeout", "insecure", "gzip"}, optKinds(opts))
	assert.Equal(t, "http://collector:4318/v1/traces", opts[0].val)

	target = otlpTarget{endpoint: "collector:4317"}
	assert.Equal(t, []string{"endpoint"}, optKinds(fakeOptions.build(target)))

	grpcOnly := fakeOptions
	grpcOnly.endpointURL = nil
	target.endpoint = "https://collector:4317"
	opts = grpcOnly.build(target)
	assert.Equal(t, "endpoint", opts[0].kind)
}

func TestResolveOTLPTarget(t *testing.T) {
	cfg := &TelemetryConfig{
		OTLP: &OTLPConfig{
			Endpoint:    "collector:4317",
			Protocol:    "http/protobuf",
			Timeout:     3 * time.Second,
			Compression: "gzip",
			Headers:     map[string]string{"authorization": "token"},
		},
		Traces:  &TracesConfig{Endpoint: "http://traces:4318/v1/traces"},
		Logs:    &LogsConfig{Endpoint: "http://logs:4318/v1/logs"},
		Metrics: &MetricsConfig{},
	}

	traces := resolveOTLPTarget(cfg, signalTraces)
	assert.True(t, traces.useHTTP)
	assert.Equal(t, "http://traces:4318/v1/traces", traces.endpoint)
	assert.Equal(t, 3*time.Second, traces.timeout)
	assert.True(t, traces.insecure)
	assert.True(t, traces.gzip)
	assert.Equal(t, "token", traces.headers["authorization"])

	assert.Equal(t, "http://logs:4318/v1/logs", resolveOTLPTarget(cfg, signalLogs).endpoint)
	assert.Equal(t, "collector:4317", resolveOTLPTarget(cfg, signalMetrics).endpoint)

	defaults := resolveOTLPTarget(nil, signalTraces)
	assert.False(t, defaults.useHTTP)
	assert.Equal(t, defaultOTLPEndpoint, defaults.endpoint)
	assert.Equal(t, defaultOTLPTimeout, defaults.timeout)
	assert.False(t, defaults.gzip)
}

func TestNormalizeDuration(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, normalizeDuration(250))
	assert.Equal(t, 2*time.Second, normalizeDuration(2*time.Second))
	assert.Zero(t, normalizeDuration(0))
}

func TestNoneExporters(t *testing.T) {
	ctx := context.Background()
	cfg := &TelemetryConfig{
		Logs:    &LogsConfig{Exporter: "none"},
		Metrics: &MetricsConfig{Exporter: "noop"},
	}

	exp, err := newLogExporter(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, exp)

	reader, err := newMetricReader(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &sdkmetric.ManualReader{}, reader)
}

func TestBuildTraceExporters(t *testing.T) {
	ctx := context.Background()
	cfg := &TelemetryConfig{
		Enabled: boolPtr(true),
		Traces:  &TracesConfig{Exporter: "stdout,none,console,noop"},
	}

	exps, err := buildTraceExporters(ctx, cfg, nil)
	require.NoError(t, err)
	require.Len(t, exps, 1)
	assert.Equal(t, "console", exps[0].name)
	shutdownExporters(ctx, exps)

	cfg.Traces.Exporter = "none"
	exps, err = buildTraceExporters(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, exps)
}

type shutdownSpy struct {
	closed bool
}

func (s *shutdownSpy) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (s *shutdownSpy) Shutdown(context.Context) error {
	s.closed = true
	return nil
}

func TestBuildTraceExporters_ReleasesOnError(t *testing.T) {
	spy := &shutdownSpy{}
	cfg := &TelemetryConfig{
		Enabled: boolPtr(true),
		Traces:  &TracesConfig{Exporter: "spy,bogus"},
	}
	factories := map[string]ExporterFactory{
		"spy": func(context.Context, *TelemetryConfig) (sdktrace.SpanExporter, error) { return spy, nil },
	}

	_, err := buildTraceExporters(context.Background(), cfg, factories)
	require.ErrorIs(t, err, ErrUnknownExporter)
	assert.True(t, spy.closed)
}

func TestIsolatedExporter(t *testing.T) {
	metrics := newTracerMetrics(noop.NewMeterProvider())

	failing := newIsolatedExporter("failing", &failingExporter{}, discardLogger, metrics)
	require.NoError(t, failing.ExportSpans(context.Background(), nil))

	panicking := newIsolatedExporter("panicking", panickingExporter{}, discardLogger, metrics)
	assert.NotPanics(t, func() {
		require.NoError(t, panicking.ExportSpans(context.Background(), nil))
	})

	broken := newIsolatedExporter("broken", shutdownFailer{}, discardLogger, metrics)
	err := broken.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "socket closed")
}

type shutdownFailer struct{}

func (shutdownFailer) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (shutdownFailer) Shutdown(context.Context) error                            { return errors.New("socket closed") }
