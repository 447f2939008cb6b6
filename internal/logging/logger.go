package logging

import (
	"io"
	"log/slog"
)

// New returns the JSON logger used by the service.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: level}))
}
