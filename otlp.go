package movetrace

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	defaultOTLPEndpoint = "localhost:4317"
	defaultOTLPTimeout  = 10 * time.Second
)

// otlpSignal names the telemetry signal an OTLP exporter carries.
type otlpSignal string

const (
	signalTraces  otlpSignal = "traces"
	signalLogs    otlpSignal = "logs"
	signalMetrics otlpSignal = "metrics"
)

// otlpTarget is the resolved connection of one OTLP exporter.
type otlpTarget struct {
	signal   otlpSignal
	useHTTP  bool
	endpoint string
	headers  map[string]string
	timeout  time.Duration
	gzip     bool
	insecure bool
}

// resolveOTLPTarget merges the shared OTLP settings with the per-signal endpoint override.
func resolveOTLPTarget(cfg *TelemetryConfig, signal otlpSignal) otlpTarget {
	shared := cfg.GetOTLPConfig()

	t := otlpTarget{
		signal:   signal,
		endpoint: defaultOTLPEndpoint,
		timeout:  defaultOTLPTimeout,
		headers:  shared.Headers,
		gzip:     shared.Compression == "gzip",
		insecure: shared.IsInsecure(),
	}
	switch strings.ToLower(shared.Protocol) {
	case "http", "http/protobuf":
		t.useHTTP = true
	}
	if shared.Timeout > 0 {
		t.timeout = normalizeDuration(shared.Timeout)
	}
	if shared.Endpoint != "" {
		t.endpoint = shared.Endpoint
	}

	switch signal {
	case signalTraces:
		t.endpoint = cfg.GetOTLPEndpoint()
	case signalLogs:
		if cfg != nil && cfg.Logs != nil && cfg.Logs.Endpoint != "" {
			t.endpoint = cfg.Logs.Endpoint
		}
	case signalMetrics:
		if cfg != nil && cfg.Metrics != nil && cfg.Metrics.Endpoint != "" {
			t.endpoint = cfg.Metrics.Endpoint
		}
	}

	return t
}

// hasURLScheme reports whether endpoint is a full http(s) URL rather than host:port.
func (t otlpTarget) hasURLScheme() bool {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)

	return scheme == "http" || scheme == "https"
}

// otlpOptions lists the option constructors of one OTLP exporter package.
// endpointURL is nil for packages that only take host:port.
type otlpOptions[T any] struct {
	endpoint    func(string) T
	endpointURL func(string) T
	headers     func(map[string]string) T
	timeout     func(time.Duration) T
	insecure    func() T
	gzip        func() T
}

func (o otlpOptions[T]) build(t otlpTarget) []T {
	opts := make([]T, 0, 5)
	if o.endpointURL != nil && t.hasURLScheme() {
		opts = append(opts, o.endpointURL(t.endpoint))
	} else {
		opts = append(opts, o.endpoint(t.endpoint))
	}
	if len(t.headers) > 0 {
		opts = append(opts, o.headers(t.headers))
	}
	if t.timeout > 0 {
		opts = append(opts, o.timeout(t.timeout))
	}
	if t.insecure {
		opts = append(opts, o.insecure())
	}
	if t.gzip {
		opts = append(opts, o.gzip())
	}

	return opts
}

var (
	traceHTTPOptions = otlpOptions[otlptracehttp.Option]{
		endpoint:    otlptracehttp.WithEndpoint,
		endpointURL: otlptracehttp.WithEndpointURL,
		headers:     otlptracehttp.WithHeaders,
		timeout:     otlptracehttp.WithTimeout,
		insecure:    otlptracehttp.WithInsecure,
		gzip:        func() otlptracehttp.Option { return otlptracehttp.WithCompression(otlptracehttp.GzipCompression) },
	}
	traceGRPCOptions = otlpOptions[otlptracegrpc.Option]{
		endpoint: otlptracegrpc.WithEndpoint,
		headers:  otlptracegrpc.WithHeaders,
		timeout:  otlptracegrpc.WithTimeout,
		insecure: otlptracegrpc.WithInsecure,
		gzip:     func() otlptracegrpc.Option { return otlptracegrpc.WithCompressor("gzip") },
	}

	logHTTPOptions = otlpOptions[otlploghttp.Option]{
		endpoint:    otlploghttp.WithEndpoint,
		endpointURL: otlploghttp.WithEndpointURL,
		headers:     otlploghttp.WithHeaders,
		timeout:     otlploghttp.WithTimeout,
		insecure:    otlploghttp.WithInsecure,
		gzip:        func() otlploghttp.Option { return otlploghttp.WithCompression(otlploghttp.GzipCompression) },
	}
	logGRPCOptions = otlpOptions[otlploggrpc.Option]{
		endpoint: otlploggrpc.WithEndpoint,
		headers:  otlploggrpc.WithHeaders,
		timeout:  otlploggrpc.WithTimeout,
		insecure: otlploggrpc.WithInsecure,
		gzip:     func() otlploggrpc.Option { return otlploggrpc.WithCompressor("gzip") },
	}

	metricHTTPOptions = otlpOptions[otlpmetrichttp.Option]{
		endpoint:    otlpmetrichttp.WithEndpoint,
		endpointURL: otlpmetrichttp.WithEndpointURL,
		headers:     otlpmetrichttp.WithHeaders,
		timeout:     otlpmetrichttp.WithTimeout,
		insecure:    otlpmetrichttp.WithInsecure,
		gzip:        func() otlpmetrichttp.Option { return otlpmetrichttp.WithCompression(otlpmetrichttp.GzipCompression) },
	}
	metricGRPCOptions = otlpOptions[otlpmetricgrpc.Option]{
		endpoint: otlpmetricgrpc.WithEndpoint,
		headers:  otlpmetricgrpc.WithHeaders,
		timeout:  otlpmetricgrpc.WithTimeout,
		insecure: otlpmetricgrpc.WithInsecure,
		gzip:     func() otlpmetricgrpc.Option { return otlpmetricgrpc.WithCompressor("gzip") },
	}
)

func newOTLPSpanExporter(ctx context.Context, t otlpTarget) (sdktrace.SpanExporter, error) {
	if t.useHTTP {
		return otlptrace.New(ctx, otlptracehttp.NewClient(traceHTTPOptions.build(t)...))
	}

	return otlptrace.New(ctx, otlptracegrpc.NewClient(traceGRPCOptions.build(t)...))
}

// newLogExporter builds the configured log exporter. A nil exporter means "none".
func newLogExporter(ctx context.Context, cfg *TelemetryConfig) (sdklog.Exporter, error) {
	kind := "otlp"
	if cfg != nil && cfg.Logs != nil {
		kind = normalizeExporterType(cfg.Logs.Exporter)
	}

	switch kind {
	case "console":
		return stdoutlog.New(stdoutlog.WithPrettyPrint())
	case "none":
		return nil, nil //nolint:nilnil // nil exporter means "export nothing"
	}

	t := resolveOTLPTarget(cfg, signalLogs)
	if t.useHTTP {
		return otlploghttp.New(ctx, logHTTPOptions.build(t)...)
	}

	return otlploggrpc.New(ctx, logGRPCOptions.build(t)...)
}

// newMetricReader builds the reader for the configured metric exporter.
// "none" gets a manual reader nobody collects from.
func newMetricReader(ctx context.Context, cfg *TelemetryConfig) (sdkmetric.Reader, error) {
	kind := "otlp"
	interval := 60 * time.Second
	if cfg != nil && cfg.Metrics != nil {
		kind = normalizeExporterType(cfg.Metrics.Exporter)
		interval = normalizeMetricInterval(cfg.Metrics.Interval, interval)
	}

	var (
		exp sdkmetric.Exporter
		err error
	)
	switch kind {
	case "none":
		return sdkmetric.NewManualReader(), nil
	case "console":
		exp, err = stdoutmetric.New(stdoutmetric.WithPrettyPrint())
	default:
		t := resolveOTLPTarget(cfg, signalMetrics)
		if t.useHTTP {
			exp, err = otlpmetrichttp.New(ctx, metricHTTPOptions.build(t)...)
		} else {
			exp, err = otlpmetricgrpc.New(ctx, metricGRPCOptions.build(t)...)
		}
	}
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)), nil
}

// normalizeDuration treats sub-millisecond values as milliseconds per OTel spec for numeric env vars.
func normalizeDuration(value time.Duration) time.Duration {
	if value > 0 && value < time.Millisecond {
		//nolint:durationcheck // required to interpret numeric env values as milliseconds
		return value * time.Millisecond
	}

	return value
}
