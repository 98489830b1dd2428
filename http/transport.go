package http

import (
	"net/http"

	"github.com/arloliu/movetrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Transport wraps an http.RoundTripper with OTel client spans.
//
// Client spans are named "METHOD /path" and carry the caller's trace context
// and baggage in W3C headers. A nil provider falls back to the global one.
// If base is nil, http.DefaultTransport is used.
//
// Usage:
//
//	client := &http.Client{
//	    Transport: mthttp.Transport(nil, tracer.Provider(), nil, nil),
//	}
func Transport(
	base http.RoundTripper,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
	opts ...otelhttp.Option,
) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	allOpts := buildProviderOptions(tp, mp, prop)
	allOpts = append(allOpts, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return movetrace.NameHTTP(r.Method, r.URL.Path)
	}))
	allOpts = append(allOpts, opts...)

	return otelhttp.NewTransport(base, allOpts...)
}

// buildProviderOptions creates otelhttp.Option slice from providers.
// Falls back to global providers when explicit providers are nil.
func buildProviderOptions(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
) []otelhttp.Option {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	if prop == nil {
		prop = otel.GetTextMapPropagator()
	}

	return []otelhttp.Option{
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithPropagators(prop),
	}
}
