package movetrace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEnabled(t *testing.T) {
	assert.False(t, (*TelemetryConfig)(nil).IsEnabled())
	assert.False(t, (&TelemetryConfig{}).IsEnabled())
	assert.True(t, (&TelemetryConfig{Enabled: boolPtr(true)}).IsEnabled())

	assert.True(t, (*TracesConfig)(nil).IsEnabled())
	assert.False(t, (&TracesConfig{Enabled: boolPtr(false)}).IsEnabled())
	assert.False(t, (*LogsConfig)(nil).IsEnabled())
	assert.False(t, (*MetricsConfig)(nil).IsEnabled())
}

func TestGetTracesExporters(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TelemetryConfig
		want []string
	}{
		{name: "nil", cfg: nil, want: nil},
		{name: "disabled", cfg: &TelemetryConfig{Traces: &TracesConfig{Exporter: "console"}}, want: nil},
		{
			name: "traces disabled",
			cfg:  &TelemetryConfig{Enabled: boolPtr(true), Traces: &TracesConfig{Enabled: boolPtr(false), Exporter: "console"}},
			want: nil,
		},
		{name: "default", cfg: &TelemetryConfig{Enabled: boolPtr(true)}, want: []string{"otlp"}},
		{
			name: "list",
			cfg:  &TelemetryConfig{Enabled: boolPtr(true), Traces: &TracesConfig{Exporter: " otlp, console ,,nats"}},
			want: []string{"otlp", "console", "nats"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.GetTracesExporters())
		})
	}
}

func TestGetOTLPEndpoint(t *testing.T) {
	assert.Equal(t, "localhost:4317", (*TelemetryConfig)(nil).GetOTLPEndpoint())

	cfg := &TelemetryConfig{OTLP: &OTLPConfig{Endpoint: "collector:4317"}}
	assert.Equal(t, "collector:4317", cfg.GetOTLPEndpoint())

	cfg.Traces = &TracesConfig{Endpoint: "traces:4317"}
	assert.Equal(t, "traces:4317", cfg.GetOTLPEndpoint())
}

func TestGetServiceName(t *testing.T) {
	assert.Equal(t, "movetrace", (*TelemetryConfig)(nil).GetServiceName())
	assert.Equal(t, "moves-api", (&TelemetryConfig{ServiceName: "moves-api"}).GetServiceName())
}

func TestGetNATSConfig(t *testing.T) {
	got := (*TelemetryConfig)(nil).GetNATSConfig()
	assert.Equal(t, "nats://127.0.0.1:4222", got.URL)
	assert.Equal(t, "movetrace.spans", got.Subject)

	cfg := &TelemetryConfig{Traces: &TracesConfig{NATS: &NATSConfig{Subject: "bboy.spans"}}}
	got = cfg.GetNATSConfig()
	assert.Equal(t, "nats://127.0.0.1:4222", got.URL)
	assert.Equal(t, "bboy.spans", got.Subject)
}

func TestGetServerConfig(t *testing.T) {
	got := (*Config)(nil).GetServerConfig()
	assert.Equal(t, ":1991", got.Addr)
	assert.Equal(t, "/api/v1", got.BasePath)
	assert.Empty(t, got.GRPCAddr)
	assert.True(t, got.GzipEnabled())
	assert.Equal(t, 10*time.Second, got.ShutdownTimeout)

	cfg := &Config{Server: &ServerConfig{
		Addr:     ":8080",
		GRPCAddr: ":9090",
		BasePath: "/moves-api/",
		Gzip:     boolPtr(false),
	}}
	got = cfg.GetServerConfig()
	assert.Equal(t, ":8080", got.Addr)
	assert.Equal(t, ":9090", got.GRPCAddr)
	assert.Equal(t, "/moves-api", got.BasePath)
	assert.False(t, got.GzipEnabled())
	assert.Equal(t, 10*time.Second, got.ShutdownTimeout)
}

func TestGetLoggingConfig(t *testing.T) {
	got := (*Config)(nil).GetLoggingConfig()
	assert.Equal(t, "info", got.Level)
	assert.Equal(t, "text", got.Format)

	got = (&Config{Logging: &LoggingConfig{Level: "debug"}}).GetLoggingConfig()
	assert.Equal(t, "debug", got.Level)
	assert.Equal(t, "text", got.Format)
}

func TestPropConfig(t *testing.T) {
	var nilCfg *PropConfig
	assert.True(t, nilCfg.HasTraceContext())
	assert.True(t, nilCfg.HasBaggage())

	cfg := &PropConfig{Propagators: "tracecontext"}
	assert.True(t, cfg.HasTraceContext())
	assert.False(t, cfg.HasBaggage())
}
