package moves

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/movetrace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrNotFound is returned when a move is absent from the store.
var ErrNotFound = errors.New("moves: move not found")

// Lookup outcomes, recorded as the lookup.outcome span attribute and metric label.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
)

const scopeName = "github.com/arloliu/movetrace/moves"

// Option configures a DAO.
type Option func(*options)

type options struct {
	mp metric.MeterProvider
}

// WithMeterProvider sets the MeterProvider for the lookup counter.
// Defaults to the global MeterProvider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.mp = mp
	}
}

// DAO is the data-access layer over a Store.
type DAO struct {
	store   Store
	tracer  movetrace.Tracer
	lookups metric.Int64Counter
}

// NewDAO returns a DAO reading from store.
func NewDAO(store Store, tracer movetrace.Tracer, opts ...Option) *DAO {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.mp == nil {
		o.mp = otel.GetMeterProvider()
	}

	lookups, err := o.mp.Meter(scopeName).Int64Counter("movetrace.moves.lookups",
		metric.WithDescription("Move lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		otel.Handle(err)
		lookups = noop.Int64Counter{}
	}

	return &DAO{store: store, tracer: tracer, lookups: lookups}
}

// GetMoveByName looks name up under a child span of the span in ctx.
// A miss returns an error wrapping ErrNotFound.
func (d *DAO) GetMoveByName(ctx context.Context, name string) (Move, error) {
	_, span := d.tracer.StartSpan(ctx, movetrace.NameDB("lookup", "moves"))
	defer span.End()

	span.SetAttribute("move", name)
	span.SetAttribute("dao", "getmovebyname")

	move, ok := d.store.Get(name)
	if !ok {
		d.record(ctx, span, OutcomeNotFound)
		err := fmt.Errorf("%w: %q", ErrNotFound, name)
		span.RecordError(err)

		return Move{}, err
	}

	d.record(ctx, span, OutcomeFound)
	span.SetSuccess()

	return move, nil
}

// AllMoves returns the full table. It opens no span of its own.
func (d *DAO) AllMoves(_ context.Context) map[string]Move {
	return d.store.All()
}

func (d *DAO) record(ctx context.Context, span movetrace.Span, outcome string) {
	span.SetAttribute("lookup.outcome", outcome)
	d.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
