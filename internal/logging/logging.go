// Package logging builds the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
)

// New returns a slog logger writing to w. Level is one of debug, info,
// warn, error (anything else means info). Format "text" selects the text
// handler; everything else gets JSON.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo

	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
