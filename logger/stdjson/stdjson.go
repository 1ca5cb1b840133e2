package stdjson

import (
	"io"
	"log/slog"
)

// New returns a JSON logger.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
