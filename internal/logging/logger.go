// Package logging builds the diagnostic loggers used for inconsistency
// and internal-bug reports. Diagnostics never travel through the
// operation sink; they are ordinary slog output about the instrumentation
// itself.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the default diagnostics logger. It writes to Stderr so the
// instrumented program keeps Stdout to itself, and standardizes the
// "error" attribute key to "err".
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
