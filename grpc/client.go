package grpc

import (
	"context"
	"fmt"

	"github.com/arloliu/movetrace/moves"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client calls MoveService.
type Client struct {
	cc    grpc.ClientConnInterface
	close func() error
}

// Dial connects to target with a traced connection. Transport credentials must
// be supplied in opts.
func Dial(
	target string,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
	opts ...grpc.DialOption,
) (*Client, error) {
	allOpts := append([]grpc.DialOption{
		grpc.WithStatsHandler(ClientHandler(tp, mp, prop)),
	}, opts...)

	conn, err := grpc.NewClient(target, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	return &Client{cc: conn, close: conn.Close}, nil
}

// NewClient wraps an existing connection. Close does not close cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetMove fetches a single move. codes.NotFound returns an error wrapping moves.ErrNotFound.
func (c *Client) GetMove(ctx context.Context, name string, opts ...grpc.CallOption) (moves.Move, error) {
	out := new(GetMoveResponse)
	err := c.cc.Invoke(ctx, MethodGetMove, &GetMoveRequest{Name: name}, out, c.callOptions(opts)...)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return moves.Move{}, fmt.Errorf("%s: %w", MethodGetMove, moves.ErrNotFound)
		}

		return moves.Move{}, err
	}

	return out.Move, nil
}

// ListMoves fetches every move keyed by name.
func (c *Client) ListMoves(ctx context.Context, opts ...grpc.CallOption) (map[string]moves.Move, error) {
	out := new(ListMovesResponse)
	if err := c.cc.Invoke(ctx, MethodListMoves, &ListMovesRequest{}, out, c.callOptions(opts)...); err != nil {
		return nil, err
	}

	return out.Moves, nil
}

// Close closes a connection opened by Dial.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}

	return c.close()
}

func (c *Client) callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
