// Package logging builds the service's structured logger.
//
// Records go to a local text or JSON stream and, when an OTel LoggerProvider is
// supplied, are also emitted as OTel log records correlated with the active span.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	otellog "go.opentelemetry.io/otel/log"
)

const scopeName = "github.com/arloliu/movetrace"

// Options configures New.
type Options struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	Level string

	// Format is "text" or "json".
	Format string

	// Writer receives the local stream. Defaults to os.Stderr.
	Writer io.Writer

	// LoggerProvider, when set, receives every record as an OTel log record.
	LoggerProvider otellog.LoggerProvider
}

// New returns a logger configured by opts.
func New(opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: level}
	var local slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		local = slog.NewJSONHandler(w, hopts)
	} else {
		local = slog.NewTextHandler(w, hopts)
	}

	if opts.LoggerProvider == nil {
		return slog.New(local)
	}

	return slog.New(fanout{local, newOTelBridge(opts.LoggerProvider, level)})
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}

	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}

	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}

	return out
}
