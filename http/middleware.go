package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arloliu/movetrace"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// HeaderRequestID carries the request identifier in both directions.
const HeaderRequestID = "X-Request-ID"

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	route  string
	logger *slog.Logger
	newID  func() string
}

// WithRoute sets the route part of the ingress span name. Defaults to "/".
func WithRoute(route string) MiddlewareOption {
	return func(c *middlewareConfig) {
		if route != "" {
			c.route = route
		}
	}
}

// WithPanicLogger sets the logger used to report recovered panics.
func WithPanicLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestIDGenerator replaces the UUID generator for requests without an X-Request-ID.
func WithRequestIDGenerator(f func() string) MiddlewareOption {
	return func(c *middlewareConfig) {
		if f != nil {
			c.newID = f
		}
	}
}

// Middleware opens the ingress span of every request.
//
// Each request starts a new trace: upstream trace headers are not extracted.
// The span is tagged with the request URL and identifier, handed to next in the
// request context, and closed exactly once after next returns or panics.
// A panic is recovered into a 500 response.
func Middleware(tracer movetrace.Tracer, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{
		route:  "/",
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.StartSpan(r.Context(), movetrace.NameHTTP(r.Method, cfg.route),
				trace.WithNewRoot(),
				trace.WithSpanKind(trace.SpanKindServer),
			)

			reqID := r.Header.Get(HeaderRequestID)
			if !movetrace.ValidRequestID(reqID) {
				reqID = cfg.newID()
			}

			span.SetAttribute("url.full", fullURL(r))
			span.SetAttribute("url.path", r.URL.Path)
			span.SetAttribute("http.request.method", r.Method)
			span.SetAttribute(movetrace.BaggageRequestID, reqID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			rec.Header().Set(HeaderRequestID, reqID)
			req := r.WithContext(movetrace.WithRequestID(ctx, reqID))

			defer func() {
				p := recover()
				if p != nil {
					err := fmt.Errorf("panic: %v", p)
					span.RecordError(err)
					cfg.logger.ErrorContext(ctx, "recovered handler panic",
						slog.String("path", r.URL.Path),
						slog.String("request_id", reqID),
						slog.Any("error", err),
					)
					if !rec.wroteHeader {
						http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}

				if route := routeOf(req.Pattern); route != "" {
					span.SetName(movetrace.NameHTTP(r.Method, route))
					span.SetAttribute("http.route", route)
				}
				span.SetAttribute("http.response.status_code", rec.status)
				switch {
				case p != nil:
					// recorded above
				case rec.status >= http.StatusInternalServerError:
					span.RecordError(fmt.Errorf("http status %d", rec.status))
				case rec.status < http.StatusBadRequest:
					span.SetSuccess()
				}
				span.End()
			}()

			next.ServeHTTP(rec, req)
		})
	}
}

// routeOf strips the method and the {$} anchor from a ServeMux pattern:
// "GET /moves/{$}" is "/moves/".
func routeOf(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		pattern = strings.TrimSpace(path)
	}

	return strings.TrimSuffix(pattern, "{$}")
}

func fullURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host + r.URL.RequestURI()
}


// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}

	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
