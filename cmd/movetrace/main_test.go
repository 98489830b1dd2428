package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/movetrace"
	mtgrpc "github.com/arloliu/movetrace/grpc"
	mthttp "github.com/arloliu/movetrace/http"
	"github.com/arloliu/movetrace/moves"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTracer(t *testing.T) (*movetrace.SDKTracer, *tracetest.InMemoryExporter) {
	t.Helper()

	tracer := movetrace.NewTracer(sdktrace.NewTracerProvider(), movetrace.WithLogger(discardLogger))
	exp := tracetest.NewInMemoryExporter()
	tracer.RegisterExporter(exp, movetrace.WithSyncExport())
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	return tracer, exp
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "/api/v1", cfg.GetServerConfig().BasePath)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "movetrace.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":8080\"\n  basePath: /dance\n"), 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.GetServerConfig().Addr)
		assert.Equal(t, "/dance", cfg.GetServerConfig().BasePath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})
}

func TestServeFlags_Apply(t *testing.T) {
	cfg := &movetrace.Config{}
	serveFlags{listen: ":9000", grpcListen: ":9001", logLevel: "debug"}.apply(cfg)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, ":9001", cfg.Server.GRPCAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)

	cfg = &movetrace.Config{Server: &movetrace.ServerConfig{Addr: ":1991"}}
	serveFlags{}.apply(cfg)
	assert.Equal(t, ":1991", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.GRPCAddr)
}

func TestNewApp_ServesTracedRequests(t *testing.T) {
	cfg, err := movetrace.ParseConfig([]byte(`server:
  addr: "127.0.0.1:0"
  basePath: /api/v1
logging:
  format: json
`))
	require.NoError(t, err)

	var logs bytes.Buffer
	a, err := newApp(context.Background(), cfg, &logs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.tel.Shutdown(context.Background()) })

	assert.Nil(t, a.grpc)
	assert.Empty(t, a.tracer.Exporters())
	assert.Contains(t, logs.String(), `"msg":"movetrace configured"`)

	exp := tracetest.NewInMemoryExporter()
	a.tracer.RegisterExporter(exp, movetrace.WithSyncExport())

	rec := httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/moves/windmill", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	spans := exp.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "GET /api/v1/moves/{move}", spans[2].Name)
	assert.Zero(t, a.tracer.OpenSpans())
}

func TestNewApp_GRPCEnabled(t *testing.T) {
	cfg := &movetrace.Config{Server: &movetrace.ServerConfig{Addr: "127.0.0.1:0", GRPCAddr: "127.0.0.1:0"}}

	a, err := newApp(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.tel.Shutdown(context.Background()) })

	require.NotNil(t, a.grpc)
	assert.Contains(t, a.grpc.GetServiceInfo(), mtgrpc.ServiceName)
}

func TestNewApp_UnknownExporter(t *testing.T) {
	enabled := true
	cfg := &movetrace.Config{Telemetry: &movetrace.TelemetryConfig{
		Enabled: &enabled,
		Traces:  &movetrace.TracesConfig{Exporter: "zipkin"},
	}}

	_, err := newApp(context.Background(), cfg, io.Discard)
	require.ErrorIs(t, err, movetrace.ErrUnknownExporter)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := &movetrace.Config{Server: &movetrace.ServerConfig{
		Addr:            "127.0.0.1:0",
		GRPCAddr:        "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}}

	a, err := newApp(context.Background(), cfg, io.Discard)
	require.NoError(t, err)

	exp := &keepExporter{}
	a.tracer.RegisterExporter(exp, movetrace.WithBatchOptions(sdktrace.WithBatchTimeout(time.Hour)))

	_, span := a.tracer.StartSpan(context.Background(), "queued")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Equal(t, []string{"queued"}, exp.names())
}

// keepExporter retains span names across Shutdown.
type keepExporter struct {
	mu    sync.Mutex
	spans []string
}

func (e *keepExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range spans {
		e.spans = append(e.spans, s.Name())
	}

	return nil
}

func (e *keepExporter) Shutdown(context.Context) error { return nil }

func (e *keepExporter) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.spans...)
}

type probeFixture struct {
	httpURL    string
	dialOpts   []grpc.DialOption
	serverSpan *tracetest.InMemoryExporter
}

func newProbeFixture(t *testing.T) *probeFixture {
	t.Helper()

	tracer, serverSpans := newTracer(t)
	handler := moves.NewHandler(moves.NewDAO(moves.NewStaticStore(), tracer), tracer)

	h, err := mthttp.NewServer(handler, tracer, mthttp.WithLogger(discardLogger)).Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	lis := bufconn.Listen(1024 * 1024)
	gs := mtgrpc.NewServer(handler, tracer, mtgrpc.WithLogger(discardLogger))
	go func() {
		_ = gs.Serve(lis)
	}()
	t.Cleanup(gs.Stop)

	return &probeFixture{
		httpURL: ts.URL + "/api/v1",
		dialOpts: []grpc.DialOption{
			grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
				return lis.Dial()
			}),
		},
		serverSpan: serverSpans,
	}
}

func TestRunProbe(t *testing.T) {
	f := newProbeFixture(t)
	tracer, probeSpans := newTracer(t)

	var out bytes.Buffer
	err := runProbe(context.Background(), &out, tracer, probeOptions{
		url:          f.httpURL,
		grpcAddr:     "passthrough://bufnet",
		moves:        []string{"windmill", "headspin"},
		timeout:      5 * time.Second,
		grpcDialOpts: f.dialOpts,
	})
	require.NoError(t, err)

	store := moves.NewStaticStore()
	windmill, ok := store.Get("windmill")
	require.True(t, ok)

	text := out.String()
	for _, transport := range []string{"http", "grpc"} {
		assert.Contains(t, text, fmt.Sprintf("%s windmill: %s (%s)\n", transport, windmill.Description, windmill.Type))
		assert.Contains(t, text, transport+" headspin: not found\n")
		assert.Contains(t, text, fmt.Sprintf("%s list: %v\n", transport, store.Names()))
	}

	spans := probeSpans.GetSpans()
	// 3 http client spans, 3 grpc client spans and the probe span.
	require.Len(t, spans, 7)
	probe := spans[len(spans)-1]
	assert.Equal(t, "movetrace.probe", probe.Name)
	assert.Equal(t, codes.Ok, probe.Status.Code)
	assert.Contains(t, text, "probe trace "+probe.SpanContext.TraceID().String())

	for _, s := range spans[:len(spans)-1] {
		assert.Equal(t, probe.SpanContext.TraceID(), s.SpanContext.TraceID(), s.Name)
		assert.Equal(t, probe.SpanContext.SpanID(), s.Parent.SpanID(), s.Name)
	}

	// The service starts its own trace per request.
	serverSpans := f.serverSpan.GetSpans()
	require.NotEmpty(t, serverSpans)
	for _, s := range serverSpans {
		assert.NotEqual(t, probe.SpanContext.TraceID(), s.SpanContext.TraceID(), s.Name)
	}
}

func TestRunProbe_ServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	tracer, probeSpans := newTracer(t)

	var out bytes.Buffer
	err := runProbe(context.Background(), &out, tracer, probeOptions{
		url:     url,
		moves:   []string{"windmill"},
		timeout: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `http lookup "windmill"`)
	assert.Contains(t, err.Error(), "http list")
	assert.Contains(t, out.String(), "http windmill: error:")

	spans := probeSpans.GetSpans()
	probe := spans[len(spans)-1]
	assert.Equal(t, "movetrace.probe", probe.Name)
	assert.Equal(t, codes.Error, probe.Status.Code)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "movetrace "+Version+"\n"))
	assert.Contains(t, out.String(), "Go Version: ")
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "probe", "version"})
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}
