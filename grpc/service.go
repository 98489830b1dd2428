package grpc

import (
	"context"
	"errors"

	"github.com/arloliu/movetrace/moves"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "movetrace.MoveService"

// Full method names.
const (
	MethodGetMove   = "/" + ServiceName + "/GetMove"
	MethodListMoves = "/" + ServiceName + "/ListMoves"
)

// GetMoveRequest asks for a single move.
type GetMoveRequest struct {
	Name string `json:"name"`
}

// GetMoveResponse carries a single move.
type GetMoveResponse struct {
	Move moves.Move `json:"move"`
}

// ListMovesRequest asks for every move.
type ListMovesRequest struct{}

// ListMovesResponse carries every move keyed by name.
type ListMovesResponse struct {
	Moves map[string]moves.Move `json:"moves"`
}

// MoveServiceServer is the server API of MoveService.
type MoveServiceServer interface {
	GetMove(ctx context.Context, req *GetMoveRequest) (*GetMoveResponse, error)
	ListMoves(ctx context.Context, req *ListMovesRequest) (*ListMovesResponse, error)
}

// RegisterMoveServiceServer registers srv on s.
func RegisterMoveServiceServer(s grpc.ServiceRegistrar, srv MoveServiceServer) {
	s.RegisterService(&moveServiceDesc, srv)
}

var moveServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MoveServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetMove", Handler: getMoveHandler},
		{MethodName: "ListMoves", Handler: listMovesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "movetrace/moves.json",
}

func getMoveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetMoveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MoveServiceServer).GetMove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetMove}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MoveServiceServer).GetMove(ctx, req.(*GetMoveRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func listMovesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListMovesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MoveServiceServer).ListMoves(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListMoves}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MoveServiceServer).ListMoves(ctx, req.(*ListMovesRequest))
	}

	return interceptor(ctx, in, info, handler)
}

// Service implements MoveServiceServer on a moves.Handler.
type Service struct {
	handler *moves.Handler
}

var _ MoveServiceServer = (*Service)(nil)

// NewService returns a Service answering from handler.
func NewService(handler *moves.Handler) *Service {
	return &Service{handler: handler}
}

// GetMove returns the requested move, or codes.NotFound.
func (s *Service) GetMove(ctx context.Context, req *GetMoveRequest) (*GetMoveResponse, error) {
	if req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}

	move, err := s.handler.GetMoveByName(ctx, req.Name)
	switch {
	case errors.Is(err, moves.ErrNotFound):
		return nil, status.Error(codes.NotFound, err.Error())
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}

	return &GetMoveResponse{Move: move}, nil
}

// ListMoves returns every move.
func (s *Service) ListMoves(ctx context.Context, _ *ListMovesRequest) (*ListMovesResponse, error) {
	return &ListMovesResponse{Moves: s.handler.GetAllMoves(ctx)}, nil
}
