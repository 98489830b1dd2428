//revive:disable:line-length-limit
package movetrace

import (
	"slices"
	"strings"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	// Server configures the HTTP and gRPC listeners.
	Server *ServerConfig `yaml:"server,omitempty"`

	// Logging configures the structured logger.
	Logging *LoggingConfig `yaml:"logging,omitempty"`

	// Telemetry configures tracing, logs and metrics export.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// ServerConfig configures the inbound transports.
type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr" env:"MOVETRACE_HTTP_ADDR" default:":1991"`

	// GRPCAddr is the gRPC listen address. Empty disables the gRPC listener.
	GRPCAddr string `yaml:"grpcAddr,omitempty" env:"MOVETRACE_GRPC_ADDR"`

	// BasePath prefixes every HTTP route.
	BasePath string `yaml:"basePath" env:"MOVETRACE_BASE_PATH" default:"/api/v1"`

	// Gzip enables dynamic response compression.
	Gzip *bool `yaml:"gzip" env:"MOVETRACE_GZIP" default:"true"`

	// ShutdownTimeout bounds graceful shutdown, including the final span flush.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"MOVETRACE_SHUTDOWN_TIMEOUT" default:"10s" validate:"gte=0"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `yaml:"level" env:"MOVETRACE_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Format is the output format of the local log stream.
	Format string `yaml:"format" env:"MOVETRACE_LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

// TelemetryConfig configures the OpenTelemetry system.
// Environment variable names follow the OTel specification:
// https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/
type TelemetryConfig struct {
	// Enabled controls whether telemetry is exported.
	// Spans are always created; a disabled config only means no exporters are registered.
	Enabled *bool `yaml:"enabled" default:"false" env:"MOVETRACE_TELEMETRY_ENABLED"`

	// ServiceName is the name of the service for telemetry identification.
	// Maps to OTEL_SERVICE_NAME.
	ServiceName string `yaml:"serviceName" env:"OTEL_SERVICE_NAME" default:"movetrace"`

	// Version is the service version (e.g., git commit or semantic version).
	// Used in service.version resource attribute.
	Version string `yaml:"version" env:"OTEL_SERVICE_VERSION"`

	// Environment is the deployment environment (e.g., production, development).
	// Used in deployment.environment resource attribute.
	Environment string `yaml:"environment" env:"OTEL_DEPLOYMENT_ENVIRONMENT" default:"development"`

	// ResourceAttributes contains additional resource attributes as key=value pairs.
	// Maps to OTEL_RESOURCE_ATTRIBUTES (comma-separated key=value pairs).
	ResourceAttributes map[string]string `yaml:"resourceAttributes,omitempty" env:"OTEL_RESOURCE_ATTRIBUTES"`

	// OTLP contains shared OTLP exporter settings used by all signals (traces, logs, metrics).
	// Signal-specific settings can override these.
	OTLP *OTLPConfig `yaml:"otlp,omitempty"`

	// Traces configures the tracing subsystem.
	Traces *TracesConfig `yaml:"traces,omitempty"`

	// Logs configures the OTel log bridge.
	Logs *LogsConfig `yaml:"logs,omitempty"`

	// Metrics configures the metrics subsystem.
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`

	// Propagation configures outbound context propagation (W3C TraceContext, Baggage).
	// Maps to OTEL_PROPAGATORS. Inbound requests always start a new trace.
	Propagation *PropConfig `yaml:"propagation,omitempty"`
}

// OTLPConfig contains shared OTLP exporter settings.
// These settings apply to all signals unless overridden by signal-specific config.
type OTLPConfig struct {
	// Endpoint is the OTLP collector endpoint.
	// Maps to OTEL_EXPORTER_OTLP_ENDPOINT.
	//
	// Format depends on protocol:
	//   - gRPC: "host:port" (e.g., "localhost:4317"). Do NOT include scheme.
	//   - HTTP: Full URL with scheme (e.g., "http://localhost:4318/v1/traces").
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	// Insecure disables TLS for the OTLP connection.
	// Maps to OTEL_EXPORTER_OTLP_INSECURE.
	Insecure *bool `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`

	// Headers adds custom headers to OTLP requests.
	// Maps to OTEL_EXPORTER_OTLP_HEADERS (comma-separated key=value pairs).
	// Avoid logging this value, as it may contain sensitive credentials.
	Headers map[string]string `yaml:"headers,omitempty" env:"OTEL_EXPORTER_OTLP_HEADERS"`

	// Protocol determines the OTLP transport protocol.
	// Maps to OTEL_EXPORTER_OTLP_PROTOCOL.
	// Options: "grpc", "http/protobuf", "http".
	Protocol string `yaml:"protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc" validate:"oneof=grpc http/protobuf http"`

	// Timeout is the timeout for exporter operations.
	// Maps to OTEL_EXPORTER_OTLP_TIMEOUT.
	Timeout time.Duration `yaml:"timeout" env:"OTEL_EXPORTER_OTLP_TIMEOUT" default:"10s" validate:"gte=0"`

	// Compression sets the compression algorithm for OTLP.
	// Maps to OTEL_EXPORTER_OTLP_COMPRESSION.
	// Options: "gzip", "none".
	Compression string `yaml:"compression,omitempty" env:"OTEL_EXPORTER_OTLP_COMPRESSION" validate:"omitempty,oneof=gzip none"`
}

// IsInsecure returns true if insecure connection is enabled.
func (c *OTLPConfig) IsInsecure() bool {
	return c == nil || c.Insecure == nil || *c.Insecure
}

// TracesConfig configures the tracing subsystem.
type TracesConfig struct {
	// Enabled controls whether trace export is active. Defaults to true if parent is enabled.
	Enabled *bool `yaml:"enabled" default:"true"`

	// Exporter is a comma-separated list of trace exporters; every entry is registered.
	// Maps to OTEL_TRACES_EXPORTER.
	// Options: "otlp", "console", "stdout", "nats", "none".
	Exporter string `yaml:"exporter" env:"OTEL_TRACES_EXPORTER" default:"otlp"`

	// Endpoint overrides OTLP.Endpoint for traces.
	// Maps to OTEL_EXPORTER_OTLP_TRACES_ENDPOINT.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	// Sampling configures the trace sampling strategy.
	Sampling *SamplingConfig `yaml:"sampling,omitempty"`

	// NATS configures the NATS span sink used by the "nats" exporter.
	NATS *NATSConfig `yaml:"nats,omitempty"`
}

// IsEnabled returns true if trace export is enabled.
func (c *TracesConfig) IsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}

// NATSConfig configures the NATS span sink.
type NATSConfig struct {
	// URL is the NATS server URL.
	URL string `yaml:"url" env:"MOVETRACE_NATS_URL" default:"nats://127.0.0.1:4222"`

	// Subject is the subject completed span records are published on.
	Subject string `yaml:"subject" env:"MOVETRACE_NATS_SUBJECT" default:"movetrace.spans"`

	// JetStream publishes through JetStream and waits for the stream ack.
	// The subject must be bound to a stream.
	JetStream bool `yaml:"jetStream" env:"MOVETRACE_NATS_JETSTREAM"`
}

// LogsConfig configures the OTel log bridge.
type LogsConfig struct {
	// Enabled controls whether OTel log export is active.
	// Defaults to false (opt-in for logs).
	Enabled *bool `yaml:"enabled" default:"false"`

	// Exporter determines the log exporter type.
	// Maps to OTEL_LOGS_EXPORTER.
	// Options: "otlp", "console", "stdout", "none".
	Exporter string `yaml:"exporter" env:"OTEL_LOGS_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`

	// Endpoint overrides OTLP.Endpoint for logs.
	// Maps to OTEL_EXPORTER_OTLP_LOGS_ENDPOINT.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"`
}

// IsEnabled returns true if OTel log export is enabled.
func (c *LogsConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	// Enabled controls whether metrics export is active.
	// Defaults to false (opt-in for metrics).
	Enabled *bool `yaml:"enabled" default:"false"`

	// Exporter determines the metrics exporter type.
	// Maps to OTEL_METRICS_EXPORTER.
	// Options: "otlp", "console", "stdout", "none".
	Exporter string `yaml:"exporter" env:"OTEL_METRICS_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`

	// Endpoint overrides OTLP.Endpoint for metrics.
	// Maps to OTEL_EXPORTER_OTLP_METRICS_ENDPOINT.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`

	// Interval is the export interval for periodic metric reader.
	// Maps to OTEL_METRIC_EXPORT_INTERVAL (milliseconds if numeric).
	Interval time.Duration `yaml:"interval,omitempty" env:"OTEL_METRIC_EXPORT_INTERVAL" default:"60s" validate:"omitempty,gt=0"`
}

// IsEnabled returns true if metrics export is enabled.
func (c *MetricsConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// SamplingConfig configures the trace sampling strategy.
// Maps to OTEL_TRACES_SAMPLER and OTEL_TRACES_SAMPLER_ARG.
type SamplingConfig struct {
	// Sampler determines which sampler to use.
	// Options: "always_on", "always_off", "traceidratio",
	// "parentbased_always_on", "parentbased_always_off", "parentbased_traceidratio".
	Sampler string `yaml:"sampler" env:"OTEL_TRACES_SAMPLER" default:"parentbased_always_on" validate:"oneof=always_on always_off traceidratio parentbased_always_on parentbased_always_off parentbased_traceidratio"`

	// SamplerArg is the sampling probability for ratio-based samplers (0.0 to 1.0).
	SamplerArg float64 `yaml:"samplerArg" env:"OTEL_TRACES_SAMPLER_ARG" default:"1.0" validate:"gte=0,lte=1"`
}

// PropConfig configures outbound context propagation.
// Maps to OTEL_PROPAGATORS.
type PropConfig struct {
	// Propagators specifies which propagators to use (comma-separated list).
	// Known values: "tracecontext", "baggage", "none".
	// Defaults to "tracecontext,baggage" (W3C standards).
	Propagators string `yaml:"propagators" env:"OTEL_PROPAGATORS" default:"tracecontext,baggage"`
}

// HasTraceContext returns true if tracecontext propagator is enabled.
func (c *PropConfig) HasTraceContext() bool {
	if c == nil || c.Propagators == "" {
		return true // default includes tracecontext
	}

	return containsItem(c.Propagators, "tracecontext")
}

// HasBaggage returns true if baggage propagator is enabled.
func (c *PropConfig) HasBaggage() bool {
	if c == nil || c.Propagators == "" {
		return true // default includes baggage
	}

	return containsItem(c.Propagators, "baggage")
}

func containsItem(list, name string) bool {
	return slices.Contains(splitList(list), name)
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(list string) []string {
	if list == "" {
		return nil
	}

	var result []string
	for p := range strings.SplitSeq(list, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}

	return result
}

// IsEnabled returns true if telemetry export is enabled.
// Defaults to false if nil.
func (c *TelemetryConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// GetServiceName returns the configured service name or "movetrace".
func (c *TelemetryConfig) GetServiceName() string {
	if c == nil || c.ServiceName == "" {
		return "movetrace"
	}

	return c.ServiceName
}

// GetSamplingConfig returns the effective sampling config.
func (c *TelemetryConfig) GetSamplingConfig() *SamplingConfig {
	if c == nil || c.Traces == nil {
		return nil
	}

	return c.Traces.Sampling
}

// GetTracesExporters returns the effective list of trace exporter names.
// A disabled config yields no exporters.
func (c *TelemetryConfig) GetTracesExporters() []string {
	if !c.IsEnabled() || !c.Traces.IsEnabled() {
		return nil
	}
	if c.Traces == nil || c.Traces.Exporter == "" {
		return []string{"otlp"}
	}

	return splitList(c.Traces.Exporter)
}

// GetOTLPEndpoint returns the effective OTLP endpoint for traces.
// Priority: Traces.Endpoint > OTLP.Endpoint.
func (c *TelemetryConfig) GetOTLPEndpoint() string {
	if c == nil {
		return "localhost:4317"
	}
	if c.Traces != nil && c.Traces.Endpoint != "" {
		return c.Traces.Endpoint
	}
	if c.OTLP != nil && c.OTLP.Endpoint != "" {
		return c.OTLP.Endpoint
	}

	return "localhost:4317"
}

// GetOTLPConfig returns the effective OTLP config.
func (c *TelemetryConfig) GetOTLPConfig() *OTLPConfig {
	if c == nil || c.OTLP == nil {
		return &OTLPConfig{}
	}

	return c.OTLP
}

// GetNATSConfig returns the NATS sink config with defaults filled in.
func (c *TelemetryConfig) GetNATSConfig() NATSConfig {
	out := NATSConfig{URL: "nats://127.0.0.1:4222", Subject: "movetrace.spans"}
	if c == nil || c.Traces == nil || c.Traces.NATS == nil {
		return out
	}
	if c.Traces.NATS.URL != "" {
		out.URL = c.Traces.NATS.URL
	}
	if c.Traces.NATS.Subject != "" {
		out.Subject = c.Traces.NATS.Subject
	}
	out.JetStream = c.Traces.NATS.JetStream

	return out
}

// GetServerConfig returns the server config with defaults filled in.
func (c *Config) GetServerConfig() ServerConfig {
	out := ServerConfig{
		Addr:            ":1991",
		BasePath:        "/api/v1",
		Gzip:            boolPtr(true),
		ShutdownTimeout: 10 * time.Second,
	}
	if c == nil || c.Server == nil {
		return out
	}

	s := c.Server
	if s.Addr != "" {
		out.Addr = s.Addr
	}
	out.GRPCAddr = s.GRPCAddr
	if s.BasePath != "" {
		out.BasePath = strings.TrimSuffix(s.BasePath, "/")
	}
	if s.Gzip != nil {
		out.Gzip = s.Gzip
	}
	if s.ShutdownTimeout > 0 {
		out.ShutdownTimeout = s.ShutdownTimeout
	}

	return out
}

// GzipEnabled reports whether dynamic response compression is on.
func (c ServerConfig) GzipEnabled() bool {
	return c.Gzip == nil || *c.Gzip
}

// GetLoggingConfig returns the logging config with defaults filled in.
func (c *Config) GetLoggingConfig() LoggingConfig {
	out := LoggingConfig{Level: "info", Format: "text"}
	if c == nil || c.Logging == nil {
		return out
	}
	if c.Logging.Level != "" {
		out.Level = c.Logging.Level
	}
	if c.Logging.Format != "" {
		out.Format = c.Logging.Format
	}

	return out
}

// boolPtr returns a pointer to the given boolean value.
// It is useful for initializing config fields.
func boolPtr(v bool) *bool { return &v }
