package logging

import (
	"io"
	"log/slog"
)

// Logger is the leveled logging surface taken by components that are handed
// a logger rather than building one, such as the OAuth flow. *slog.Logger
// implements it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var _ Logger = (*slog.Logger)(nil)

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
