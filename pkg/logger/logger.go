// Package logger provides structured logging for tyr.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger is the logging interface accepted by every tyr component.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// SlogLogger adapts *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger = NewLogger(false, "text")
)

// NewLogger creates a logger writing to stderr in text or json format.
func NewLogger(debug bool, format string) *SlogLogger {
	return NewLoggerWithWriter(os.Stderr, debug, format)
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer, debug bool, format string) *SlogLogger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &SlogLogger{logger: slog.New(handler)}
}

// Debug logs a debug message.
func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs an info message.
func (l *SlogLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs a warning message.
func (l *SlogLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs an error message.
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// With returns a logger carrying the given attributes.
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// WithGroup returns a logger that nests attributes under name.
func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{logger: l.logger.WithGroup(name)}
}

// SetupLogger configures the global logger.
func SetupLogger(debug bool, format string) {
	SetGlobalLogger(NewLogger(debug, format))
}

// SetGlobalLogger replaces the global logger.
func SetGlobalLogger(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalLogger returns the global logger.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	GetGlobalLogger().Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	GetGlobalLogger().Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	GetGlobalLogger().Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	GetGlobalLogger().Error(msg, args...)
}

// WithProvider returns a logger with provider context.
func WithProvider(name string) Logger {
	return GetGlobalLogger().With("provider", name)
}
