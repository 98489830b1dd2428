// Package http serves the move lookup API and traces HTTP traffic.
//
// # Server
//
// [Server] routes GET {base}/moves/{move} and GET {base}/moves/ behind
// [Middleware], which opens the root span of every request:
//
//	srv := mthttp.NewServer(handler, tracer, mthttp.WithBasePath("/api/v1"))
//	httpSrv, err := srv.HTTPServer(":1991")
//
// # Client
//
// [NewClient] returns an instrumented http.Client; [MovesClient] wraps it with
// typed calls:
//
//	hc := mthttp.NewClient(tracer.Provider(), nil, nil, mthttp.WithTimeout(5*time.Second))
//	move, err := mthttp.NewMovesClient("http://localhost:1991/api/v1", hc).GetMove(ctx, "windmill")
package http
