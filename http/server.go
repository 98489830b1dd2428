package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arloliu/movetrace"
	"github.com/arloliu/movetrace/moves"
	"github.com/klauspost/compress/gzhttp"
)

// NotFoundMessage is the body returned for unmapped routes.
const NotFoundMessage = "YOU DONE GOOFED, 404 MAN!!!"

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithBasePath sets the prefix of every route. Defaults to "/api/v1".
func WithBasePath(p string) ServerOption {
	return func(s *Server) {
		s.basePath = strings.TrimSuffix(p, "/")
	}
}

// WithGzip toggles dynamic response compression. Enabled by default.
func WithGzip(enabled bool) ServerOption {
	return func(s *Server) {
		s.gzip = enabled
	}
}

// WithGzipMinSize sets the smallest response body that gets compressed.
func WithGzipMinSize(n int) ServerOption {
	return func(s *Server) {
		s.gzipMinSize = n
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server serves the move lookup API over HTTP.
type Server struct {
	handler     *moves.Handler
	tracer      movetrace.Tracer
	basePath    string
	gzip        bool
	gzipMinSize int
	logger      *slog.Logger
}

// NewServer returns a Server answering from handler, tracing with tracer.
func NewServer(handler *moves.Handler, tracer movetrace.Tracer, opts ...ServerOption) *Server {
	s := &Server{
		handler:     handler,
		tracer:      tracer,
		basePath:    "/api/v1",
		gzip:        true,
		gzipMinSize: gzhttp.DefaultMinSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the routed, traced http.Handler.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.basePath+"/moves/{move}", s.getMove)
	mux.HandleFunc("GET "+s.basePath+"/moves/{$}", s.listMoves)
	mux.HandleFunc("GET "+s.basePath+"/moves", s.listMoves)
	mux.HandleFunc("/", s.notFound)

	var h http.Handler = mux
	if s.gzip {
		wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(s.gzipMinSize))
		if err != nil {
			return nil, err
		}
		h = wrap(mux)
	}

	route := s.basePath
	if route == "" {
		route = "/"
	}

	return Middleware(s.tracer, WithRoute(route), WithPanicLogger(s.logger))(h), nil
}

// HTTPServer returns an http.Server listening on addr with Handler.
func (s *Server) HTTPServer(addr string) (*http.Server, error) {
	h, err := s.Handler()
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}, nil
}

func (s *Server) getMove(w http.ResponseWriter, r *http.Request) {
	move, err := s.handler.GetMoveByName(r.Context(), r.PathValue("move"))
	switch {
	case errors.Is(err, moves.ErrNotFound):
		s.writeJSON(w, r, http.StatusNotFound, errorBody{Error: err.Error()})
	case err != nil:
		s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)})
	default:
		s.writeJSON(w, r, http.StatusOK, move)
	}
}

func (s *Server) listMoves(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.handler.GetAllMoves(r.Context()))
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(NotFoundMessage))
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WarnContext(r.Context(), "write response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}
