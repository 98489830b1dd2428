// Package grpc exposes the move lookup over gRPC.
//
// MoveService is declared by hand and carried by a JSON codec
// (content-subtype "json"), so no generated protobuf code is involved.
//
// # Server
//
//	s := mtgrpc.NewServer(handler, tracer, mtgrpc.WithLogger(logger))
//	go s.Serve(lis)
//
// [UnaryServerInterceptor] opens the ingress span of each RPC, named
// "movetrace.MoveService/GetMove" and so on.
//
// # Client
//
//	c, err := mtgrpc.Dial("localhost:1992", tracer.Provider(), nil, nil,
//	    grpc.WithTransportCredentials(insecure.NewCredentials()),
//	)
//	move, err := c.GetMove(ctx, "windmill")
package grpc
