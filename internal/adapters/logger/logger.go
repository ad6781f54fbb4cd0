// Package logger implements the logging port using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aptprep/aptprep/internal/core/ports"
)

// LevelTrace sits below slog's built-in Debug level. The second -v enables it.
const LevelTrace = slog.LevelDebug - 4

// Logger implements ports.Logger using a slog text handler.
type Logger struct {
	logger *slog.Logger
}

// New creates a Logger writing to stderr at the given level.
func New(level slog.Level) *Logger {
	return NewWithOutput(os.Stderr, level)
}

// NewWithOutput creates a Logger writing to w at the given level.
func NewWithOutput(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{logger: slog.New(handler)}
}

// LevelFromVerbosity maps the count of -v flags to a level:
// 0 is INFO, 1 is DEBUG, 2 and above is TRACE.
func LevelFromVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelInfo
	case verbosity == 1:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

var _ ports.Logger = (*Logger)(nil)

// Trace logs below Debug. Used for per-chunk and per-item noise.
func (l *Logger) Trace(msg string, args ...any) {
	l.logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}
