package movetrace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownExporter is returned for an exporter name with no known builder.
var ErrUnknownExporter = errors.New("movetrace: unknown exporter")

// ErrExporterDelivery wraps failures of an exporter to accept completed spans.
// Such failures are logged and counted, never returned to the request path.
var ErrExporterDelivery = errors.New("movetrace: exporter delivery failed")

// namedExporter pairs an exporter with the config name it was built from.
type namedExporter struct {
	name     string
	exporter sdktrace.SpanExporter
}

// buildTraceExporters creates every trace exporter listed in configuration.
// "none" entries yield nothing, so an all-"none" list registers zero exporters.
func buildTraceExporters(
	ctx context.Context,
	cfg *TelemetryConfig,
	factories map[string]ExporterFactory,
) ([]namedExporter, error) {
	var out []namedExporter
	seen := make(map[string]bool)

	for _, raw := range cfg.GetTracesExporters() {
		name := normalizeExporterType(raw)
		if seen[name] {
			continue
		}
		seen[name] = true

		exp, err := buildTraceExporter(ctx, cfg, name, factories)
		if err != nil {
			shutdownExporters(ctx, out)
			return nil, fmt.Errorf("build %s trace exporter: %w", name, err)
		}
		if exp == nil {
			continue
		}
		out = append(out, namedExporter{name: name, exporter: exp})
	}

	return out, nil
}

// buildTraceExporter creates a single trace exporter. A nil exporter means "none".
func buildTraceExporter(
	ctx context.Context,
	cfg *TelemetryConfig,
	name string,
	factories map[string]ExporterFactory,
) (sdktrace.SpanExporter, error) {
	if f, ok := factories[name]; ok && f != nil {
		return f(ctx, cfg)
	}

	switch name {
	case "console":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		return nil, nil //nolint:nilnil // nil exporter means "register nothing"
	case "otlp":
		return newOTLPSpanExporter(ctx, resolveOTLPTarget(cfg, signalTraces))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
	}
}

func shutdownExporters(ctx context.Context, exps []namedExporter) {
	for _, e := range exps {
		_ = e.exporter.Shutdown(ctx)
	}
}

// isolatedExporter shields the SDK and the other exporters from a failing sink.
type isolatedExporter struct {
	name    string
	next    sdktrace.SpanExporter
	logger  *slog.Logger
	metrics *tracerMetrics
}

func newIsolatedExporter(
	name string,
	next sdktrace.SpanExporter,
	logger *slog.Logger,
	metrics *tracerMetrics,
) *isolatedExporter {
	return &isolatedExporter{name: name, next: next, logger: logger, metrics: metrics}
}

// ExportSpans forwards spans to the wrapped exporter. Errors and panics are
// recorded and swallowed.
func (e *isolatedExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(ctx, len(spans), fmt.Errorf("%w: %s: panic: %v", ErrExporterDelivery, e.name, r))
			err = nil
		}
	}()

	if xerr := e.next.ExportSpans(ctx, spans); xerr != nil {
		e.fail(ctx, len(spans), fmt.Errorf("%w: %s: %w", ErrExporterDelivery, e.name, xerr))
	}

	return nil
}

// Shutdown shuts the wrapped exporter down. Unlike delivery failures, shutdown
// errors are returned so they surface from Tracer.Shutdown.
func (e *isolatedExporter) Shutdown(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("movetrace: %s: shutdown panic: %v", e.name, r)
		}
	}()

	if err := e.next.Shutdown(ctx); err != nil {
		return fmt.Errorf("movetrace: %s: shutdown: %w", e.name, err)
	}

	return nil
}

func (e *isolatedExporter) fail(ctx context.Context, n int, err error) {
	e.metrics.exportFailed(ctx, e.name)
	e.logger.WarnContext(ctx, "dropping spans",
		slog.String("exporter", e.name),
		slog.Int("spans", n),
		slog.Any("error", err),
	)
}

// exporterAliases maps accepted spellings to canonical exporter names.
var exporterAliases = map[string]string{
	"":       "otlp",
	"stdout": "console",
	"noop":   "none",
	"nop":    "none",
}

// normalizeExporterType lower-cases value and resolves aliases.
func normalizeExporterType(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := exporterAliases[v]; ok {
		return alias
	}

	return v
}
