// Package movetrace provides the span-propagation core of the move lookup service.
//
// # Overview
//
// The package wraps the OpenTelemetry SDK behind a small capability interface:
//   - [Tracer] starts spans and owns the list of registered exporters
//   - [Span] is tagged while open and closed exactly once, on any code path
//   - Parents travel in the [context.Context] passed down the call chain; there
//     is no process-wide "current span" that concurrent requests could overwrite
//   - Exporter failures are isolated: they are logged and counted, never returned
//
// # Quick Start
//
//	cfg, err := movetrace.LoadConfig("movetrace.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tel, err := movetrace.Setup(ctx, cfg.Telemetry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//	tracer, err := tel.StartTracer(ctx)
//
// Every layer opens a child of the span it was handed and closes it before returning:
//
//	func (d *DAO) GetMoveByName(ctx context.Context, name string) (Move, error) {
//	    _, span := d.tracer.StartSpan(ctx, movetrace.NameDB("lookup", "moves"))
//	    defer span.End()
//
//	    span.SetAttribute("move", name)
//	    ...
//	}
//
// # Configuration
//
// Configure via YAML or environment variables (OTel standard names):
//
//	telemetry:
//	  enabled: true
//	  serviceName: "movetrace"  # OTEL_SERVICE_NAME
//	  traces:
//	    exporter: "otlp,console"  # OTEL_TRACES_EXPORTER, every entry is registered
//	  otlp:
//	    endpoint: "otel-collector:4317"  # OTEL_EXPORTER_OTLP_ENDPOINT
//
// Disabling telemetry removes exporters but never changes how spans are created.
//
// # Shutdown
//
// [SDKTracer.Shutdown] flushes queued spans to every exporter before releasing them.
// [Telemetry.Shutdown] does the same for the tracer, logger and meter providers.
package movetrace
