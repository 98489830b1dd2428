// Package nats publishes completed movetrace spans to NATS.
//
// Each span becomes one JSON [movetrace.SpanRecord] message on a single
// subject. The message headers carry the W3C trace context of the span it
// describes, so subscribers can correlate records without decoding them.
//
// # Core NATS
//
//	nc, _ := nats.Connect(url)
//	exp := nats.NewExporter(nc, nats.WithSubject("movetrace.spans"), nats.WithOwnedConn())
//	tracer.RegisterExporter(exp, movetrace.WithExporterName("nats"))
//
// # JetStream
//
//	js, _ := jetstream.New(nc)
//	exp := nats.NewJetStreamExporter(js, nats.WithSubject("movetrace.spans"))
//
// # From Config
//
// [Factory] builds either exporter from the telemetry.traces.nats section and
// makes "nats" a valid OTEL_TRACES_EXPORTER entry:
//
//	tel.StartTracer(ctx, movetrace.WithExporterFactory("nats", nats.Factory()))
package nats
