package grpc

import (
	"context"
	"log/slog"
	"strings"

	"github.com/arloliu/movetrace"
	"github.com/arloliu/movetrace/moves"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// MetadataRequestID carries the request identifier in both directions.
const MetadataRequestID = "x-request-id"

// ServerOption configures NewServer and UnaryServerInterceptor.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger *slog.Logger
	grpc   []grpc.ServerOption
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(l *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithGRPCOptions passes options through to grpc.NewServer.
func WithGRPCOptions(opts ...grpc.ServerOption) ServerOption {
	return func(c *serverConfig) {
		c.grpc = append(c.grpc, opts...)
	}
}

func applyServerOptions(opts []ServerOption) serverConfig {
	c := serverConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// NewServer returns a gRPC server exposing MoveService, traced with tracer.
func NewServer(handler *moves.Handler, tracer movetrace.Tracer, opts ...ServerOption) *grpc.Server {
	cfg := applyServerOptions(opts)

	grpcOpts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(tracer, opts...)),
	}, cfg.grpc...)

	s := grpc.NewServer(grpcOpts...)
	RegisterMoveServiceServer(s, NewService(handler))

	return s
}

// UnaryServerInterceptor opens the ingress span of every unary RPC.
//
// Like the HTTP middleware, each call starts a new trace and closes its span
// exactly once, after the handler returns or panics. A panic becomes codes.Internal.
func UnaryServerInterceptor(tracer movetrace.Tracer, opts ...ServerOption) grpc.UnaryServerInterceptor {
	cfg := applyServerOptions(opts)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		service, method := splitFullMethod(info.FullMethod)
		ctx, span := tracer.StartSpan(ctx, movetrace.NameRPC(service, method),
			trace.WithNewRoot(),
			trace.WithSpanKind(trace.SpanKindServer),
		)

		reqID := incomingRequestID(ctx)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		span.SetAttribute("rpc.system", "grpc")
		span.SetAttribute("rpc.service", service)
		span.SetAttribute("rpc.method", method)
		span.SetAttribute(movetrace.BaggageRequestID, reqID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(MetadataRequestID, reqID))
		ctx = movetrace.WithRequestID(ctx, reqID)

		defer func() {
			if p := recover(); p != nil {
				err = status.Errorf(codes.Internal, "panic: %v", p)
				cfg.logger.ErrorContext(ctx, "recovered rpc panic",
					slog.String("method", info.FullMethod),
					slog.String("request_id", reqID),
					slog.Any("error", err),
				)
				resp = nil
			}

			code := status.Code(err)
			span.SetAttribute("rpc.grpc.status_code", int(code))
			switch code {
			case codes.OK:
				span.SetSuccess()
			case codes.NotFound, codes.InvalidArgument, codes.Canceled:
				// caller errors leave the status unset
			default:
				span.RecordError(err)
			}
			span.End()
		}()

		return handler(ctx, req)
	}
}

// splitFullMethod splits "/pkg.Service/Method" into its service and method.
func splitFullMethod(full string) (string, string) {
	full = strings.TrimPrefix(full, "/")
	if i := strings.LastIndex(full, "/"); i >= 0 {
		return full[:i], full[i+1:]
	}

	return "unknown", full
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(MetadataRequestID) {
		if movetrace.ValidRequestID(v) {
			return v
		}
	}

	return ""
}

