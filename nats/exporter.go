package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/movetrace"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Message headers set on every published span record.
const (
	HeaderContentType = "Content-Type"
	HeaderService     = "Movetrace-Service"
	HeaderSpanName    = "Movetrace-Span"
)

const contentTypeJSON = "application/json"

// Conn is the part of a core NATS connection the exporter needs.
// *nats.Conn satisfies it.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Exporter publishes completed spans as JSON [movetrace.SpanRecord] messages.
//
// Publish errors are returned to the span processor; when registered through
// movetrace.Tracer they are logged and counted there and never reach callers.
type Exporter struct {
	publish func(ctx context.Context, msg *nats.Msg) error
	flush   func(ctx context.Context) error
	close   func()
	opts    options

	mu      sync.Mutex
	stopped bool
}

var _ sdktrace.SpanExporter = (*Exporter)(nil)

// Connect dials url with a client name identifying the span sink.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	opts = append([]nats.Option{nats.Name("movetrace span exporter")}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}

	return nc, nil
}

// NewExporter publishes span records over core NATS.
//
// Panics if conn is nil.
func NewExporter(conn Conn, opts ...Option) *Exporter {
	if conn == nil {
		panic("movetrace/nats: Conn must not be nil")
	}
	o := applyOptions(opts)

	e := &Exporter{
		publish: func(_ context.Context, msg *nats.Msg) error { return conn.PublishMsg(msg) },
		flush:   conn.FlushWithContext,
		opts:    o,
	}
	if o.ownsConn {
		e.close = conn.Close
	}

	return e
}

// NewJetStreamExporter publishes span records through JetStream, waiting for
// the stream ack of every record. The subject must be bound to a stream.
// WithOwnedConn has no effect; the caller closes the underlying connection.
//
// Panics if js is nil.
func NewJetStreamExporter(js jetstream.JetStream, opts ...Option) *Exporter {
	if js == nil {
		panic("movetrace/nats: JetStream must not be nil")
	}
	o := applyOptions(opts)

	e := &Exporter{
		publish: func(ctx context.Context, msg *nats.Msg) error {
			_, err := js.PublishMsg(ctx, msg)
			return err
		},
		opts: o,
	}

	return e
}

// Subject returns the subject records are published on.
func (e *Exporter) Subject() string {
	return e.opts.subject
}

// ExportSpans publishes one message per span. Every span is attempted; the
// returned error joins the failures.
func (e *Exporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		return nil
	}

	var errs []error
	for _, s := range spans {
		msg, err := e.message(ctx, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := e.publish(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("publish span %s: %w", s.SpanContext().SpanID(), err))
		}
	}

	return errors.Join(errs...)
}

func (e *Exporter) message(ctx context.Context, s sdktrace.ReadOnlySpan) (*nats.Msg, error) {
	rec := movetrace.NewSpanRecord(s)
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode span %s: %w", rec.SpanID, err)
	}

	msg := &nats.Msg{
		Subject: e.opts.subject,
		Data:    data,
		Header:  make(nats.Header),
	}
	msg.Header.Set(HeaderContentType, contentTypeJSON)
	msg.Header.Set(HeaderSpanName, rec.Name)
	if rec.Service != "" {
		msg.Header.Set(HeaderService, rec.Service)
	}
	e.opts.prop.Inject(trace.ContextWithSpanContext(ctx, s.SpanContext()), headerCarrier(msg.Header))

	return msg, nil
}

// Shutdown flushes buffered messages and, for owned connections, closes them.
// Only the first call has an effect.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	e.mu.Unlock()

	var err error
	if e.flush != nil {
		if ferr := e.flush(ctx); ferr != nil {
			err = fmt.Errorf("flush nats connection: %w", ferr)
		}
	}
	if e.close != nil {
		e.close()
	}

	return err
}

// Factory returns a movetrace.ExporterFactory that connects to the NATS sink
// described by the telemetry config. Register it under the name "nats".
func Factory(connectOpts ...nats.Option) movetrace.ExporterFactory {
	return func(_ context.Context, cfg *movetrace.TelemetryConfig) (sdktrace.SpanExporter, error) {
		nc := cfg.GetNATSConfig()

		conn, err := Connect(nc.URL, connectOpts...)
		if err != nil {
			return nil, err
		}

		if !nc.JetStream {
			return NewExporter(conn, WithSubject(nc.Subject), WithOwnedConn()), nil
		}

		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create jetstream context: %w", err)
		}

		e := NewJetStreamExporter(js, WithSubject(nc.Subject))
		e.flush = conn.FlushWithContext
		e.close = conn.Close

		return e, nil
	}
}
