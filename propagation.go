package movetrace

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// knownPropagators lists the propagator names supported by this package.
var knownPropagators = map[string]bool{
	"tracecontext": true,
	"baggage":      true,
	"none":         true,
}

// buildPropagator creates the text map propagator used by outbound clients.
// Unknown propagator names are reported via otel.Handle and ignored.
// Inbound requests never extract a parent; see the http and grpc ingress packages.
func buildPropagator(cfg *PropConfig) propagation.TextMapPropagator {
	if cfg == nil {
		cfg = &PropConfig{Propagators: "tracecontext,baggage"}
	}

	for _, name := range splitList(cfg.Propagators) {
		if !knownPropagators[name] {
			otel.Handle(errors.New("movetrace: unknown propagator \"" + name + "\" in OTEL_PROPAGATORS, ignoring"))
		}
	}

	var propagators []propagation.TextMapPropagator
	if cfg.HasTraceContext() {
		propagators = append(propagators, propagation.TraceContext{})
	}
	if cfg.HasBaggage() {
		propagators = append(propagators, propagation.Baggage{})
	}

	return propagation.NewCompositeTextMapPropagator(propagators...)
}

// NoPropagation returns a propagator that neither injects nor extracts anything.
// Ingress handlers use it so every inbound request starts its own trace.
func NoPropagation() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator()
}
