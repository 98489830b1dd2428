package movetrace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ErrDisabled is returned when telemetry export is disabled.
var ErrDisabled = errors.New("movetrace: telemetry is disabled")

// ErrLogsDisabled is returned when log export is disabled.
var ErrLogsDisabled = errors.New("movetrace: logs export is disabled")

// ErrMetricsDisabled is returned when metrics export is disabled.
var ErrMetricsDisabled = errors.New("movetrace: metrics export is disabled")

// ============================================================================
// Tracer Provider
// ============================================================================

// NewTracerProvider initializes the OpenTelemetry TracerProvider with resource and
// sampler but no span processors, and installs it as the global provider.
// Span creation never depends on whether telemetry export is enabled.
func NewTracerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdktrace.TracerProvider, error) {
	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(buildSampler(cfg.GetSamplingConfig())),
	)

	otel.SetTracerProvider(tp)

	var prop *PropConfig
	if cfg != nil {
		prop = cfg.Propagation
	}
	otel.SetTextMapPropagator(buildPropagator(prop))

	return tp, nil
}

// SetupTracer builds an SDKTracer from config and registers every configured
// trace exporter on it. A disabled config yields a tracer with zero exporters.
func SetupTracer(ctx context.Context, cfg *TelemetryConfig, opts ...TracerOption) (*SDKTracer, error) {
	o := applyTracerOptions(opts)

	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporters, err := buildTraceExporters(ctx, cfg, o.factories)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	tracer := NewTracer(tp, opts...)
	for _, e := range exporters {
		tracer.RegisterExporter(e.exporter, WithExporterName(e.name))
	}

	return tracer, nil
}

// ============================================================================
// Logger Provider
// ============================================================================

// NewLoggerProvider initializes the OpenTelemetry LoggerProvider.
// Returns ErrLogsDisabled if logs export is not enabled in config.
// Pass it to the logging package to bridge slog records.
func NewLoggerProvider(ctx context.Context, cfg *TelemetryConfig) (*sdklog.LoggerProvider, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}

	// Logs are opt-in.
	if cfg.Logs == nil || !cfg.Logs.IsEnabled() {
		return nil, ErrLogsDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := newLogExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build log exporter: %w", err)
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)))
	}
	lp := sdklog.NewLoggerProvider(opts...)

	global.SetLoggerProvider(lp)

	return lp, nil
}

// ============================================================================
// Meter Provider
// ============================================================================

// NewMeterProvider initializes the OpenTelemetry MeterProvider.
// Returns ErrMetricsDisabled if metrics export is not enabled in config.
func NewMeterProvider(ctx context.Context, cfg *TelemetryConfig) (*sdkmetric.MeterProvider, error) {
	if !cfg.IsEnabled() {
		return nil, ErrDisabled
	}

	// Metrics are opt-in.
	if cfg.Metrics == nil || !cfg.Metrics.IsEnabled() {
		return nil, ErrMetricsDisabled
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reader, err := newMetricReader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}

// ============================================================================
// Shared Helpers
// ============================================================================

// buildResource creates a common resource for all providers.
func buildResource(ctx context.Context, cfg *TelemetryConfig) (*resource.Resource, error) {
	baseAttrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.GetServiceName()),
	}
	if cfg != nil {
		if cfg.Version != "" {
			baseAttrs = append(baseAttrs, semconv.ServiceVersion(cfg.Version))
		}
		if cfg.Environment != "" {
			baseAttrs = append(baseAttrs, semconv.DeploymentEnvironment(cfg.Environment))
		}
		for key, value := range cfg.ResourceAttributes {
			if key == "" {
				continue
			}
			baseAttrs = append(baseAttrs, attribute.String(key, value))
		}
	}

	attrs := []resource.Option{
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(baseAttrs...),
	}

	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

// normalizeMetricInterval treats sub-millisecond values as milliseconds per OTel spec for numeric env vars.
func normalizeMetricInterval(value time.Duration, defaultValue time.Duration) time.Duration {
	if value <= 0 {
		return defaultValue
	}
	if value < time.Millisecond {
		ms := int64(value / time.Nanosecond)
		if ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}

		return defaultValue
	}

	return value
}

func buildSampler(cfg *SamplingConfig) sdktrace.Sampler {
	if cfg == nil {
		cfg = &SamplingConfig{Sampler: "parentbased_always_on", SamplerArg: 1.0}
	}

	// OTel standard sampler names per specification
	// https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/
	switch cfg.Sampler {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(cfg.SamplerArg)
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplerArg))
	default:
		// Default to parentbased_always_on per OTel spec
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// ============================================================================
// Telemetry lifecycle
// ============================================================================

// Telemetry owns the providers of a running process.
// Shutdown must be called before exit so queued spans, logs and metrics are flushed.
type Telemetry struct {
	cfg *TelemetryConfig

	// Tracer is set by StartTracer.
	Tracer *SDKTracer

	// LoggerProvider is nil when log export is disabled.
	LoggerProvider *sdklog.LoggerProvider

	// MeterProvider is nil when metrics export is disabled.
	MeterProvider *sdkmetric.MeterProvider
}

// Setup initializes the logger and meter providers enabled in cfg.
// Call StartTracer once the logger is ready.
func Setup(ctx context.Context, cfg *TelemetryConfig) (*Telemetry, error) {
	tel := &Telemetry{cfg: cfg}

	mp, err := NewMeterProvider(ctx, cfg)
	switch {
	case err == nil:
		tel.MeterProvider = mp
	case errors.Is(err, ErrDisabled), errors.Is(err, ErrMetricsDisabled):
	default:
		return nil, err
	}

	lp, err := NewLoggerProvider(ctx, cfg)
	switch {
	case err == nil:
		tel.LoggerProvider = lp
	case errors.Is(err, ErrDisabled), errors.Is(err, ErrLogsDisabled):
	default:
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	return tel, nil
}

// LogProvider returns the OTel LoggerProvider, or nil when log export is disabled.
func (t *Telemetry) LogProvider() otellog.LoggerProvider {
	if t == nil || t.LoggerProvider == nil {
		return nil
	}

	return t.LoggerProvider
}

// StartTracer builds the tracer with the configured exporters.
// Tracer metrics go to the Telemetry MeterProvider when one is configured.
func (t *Telemetry) StartTracer(ctx context.Context, opts ...TracerOption) (*SDKTracer, error) {
	if t.MeterProvider != nil {
		opts = append([]TracerOption{WithMeterProvider(t.MeterProvider)}, opts...)
	}

	tracer, err := SetupTracer(ctx, t.cfg, opts...)
	if err != nil {
		return nil, err
	}
	t.Tracer = tracer

	return tracer, nil
}

// Shutdown flushes and closes providers, spans first.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Tracer != nil {
		if err := t.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer: %w", err))
		}
	}
	if t.LoggerProvider != nil {
		if err := t.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger provider: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
