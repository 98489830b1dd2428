package moves

import (
	"context"
	"errors"

	"github.com/arloliu/movetrace"
)

// Handler is the request-handling layer. Transports call it with a context
// carrying their ingress span.
type Handler struct {
	dao    *DAO
	tracer movetrace.Tracer
}

// NewHandler returns a Handler backed by dao.
func NewHandler(dao *DAO, tracer movetrace.Tracer) *Handler {
	return &Handler{dao: dao, tracer: tracer}
}

// GetMoveByName returns the move named name.
// A miss returns an error wrapping ErrNotFound.
func (h *Handler) GetMoveByName(ctx context.Context, name string) (Move, error) {
	ctx, span := h.tracer.StartSpan(ctx, movetrace.NameLayer("MoveHandler", "GetMoveByName"))
	defer span.End()

	span.SetAttribute("controller", "getmovebyname")
	span.SetAttribute("move", name)
	tagRequestID(ctx, span)

	move, err := h.dao.GetMoveByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			span.SetAttribute("lookup.outcome", OutcomeNotFound)
		} else {
			span.RecordError(err)
		}

		return Move{}, err
	}

	span.SetAttribute("lookup.outcome", OutcomeFound)
	span.SetSuccess()

	return move, nil
}

// GetAllMoves returns every move keyed by name.
func (h *Handler) GetAllMoves(ctx context.Context) map[string]Move {
	ctx, span := h.tracer.StartSpan(ctx, movetrace.NameLayer("MoveHandler", "GetAllMoves"))
	defer span.End()

	span.SetAttribute("controller", "getallmoves")
	tagRequestID(ctx, span)

	all := h.dao.AllMoves(ctx)
	span.SetAttribute("moves.count", len(all))
	span.SetSuccess()

	return all
}

func tagRequestID(ctx context.Context, span movetrace.Span) {
	if id := movetrace.RequestID(ctx); id != "" {
		span.SetAttribute(movetrace.BaggageRequestID, id)
	}
}
