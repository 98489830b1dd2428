package nats

import (
	"go.opentelemetry.io/otel/propagation"
)

// DefaultSubject is the subject span records are published on when none is set.
const DefaultSubject = "movetrace.spans"

type options struct {
	subject  string
	prop     propagation.TextMapPropagator
	ownsConn bool
}

func defaultOptions() options {
	return options{
		subject: DefaultSubject,
		prop:    propagation.TraceContext{},
	}
}

// Option configures an Exporter.
type Option func(*options)

// WithSubject sets the subject span records are published on.
func WithSubject(subject string) Option {
	return func(o *options) {
		if subject != "" {
			o.subject = subject
		}
	}
}

// WithPropagator sets the propagator used to stamp each message with the
// context of the span it carries. Defaults to W3C trace context.
func WithPropagator(prop propagation.TextMapPropagator) Option {
	return func(o *options) {
		if prop != nil {
			o.prop = prop
		}
	}
}

// WithOwnedConn makes Shutdown close the connection after the final flush.
func WithOwnedConn() Option {
	return func(o *options) {
		o.ownsConn = true
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
