package main

import (
	"io"
	"log/slog"

	"github.com/arloliu/movetrace/internal/logging"
)

// newCLILogger is the local-only logger of short-lived commands.
func newCLILogger(w io.Writer, level string) *slog.Logger {
	return logging.New(logging.Options{Level: level, Writer: w})
}
