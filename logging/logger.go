// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a LogLevel, falling back to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface used across grocerymesh.
// Arguments after msg are slog-style alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// LoggerConfig configures construction of a slog backed Logger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	Attrs     map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, Attrs: map[string]any{}}
}

// NewLogger builds a Logger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) Logger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	l := slog.New(handler)
	if cfg.Component != "" {
		l = l.With("component", cfg.Component)
	}
	for k, v := range cfg.Attrs {
		l = l.With(k, v)
	}
	return NewSlogAdapter(l)
}

// NewSlogLogger creates a Logger with the given level and format (json|text).
func NewSlogLogger(level LogLevel, format string, addSource bool) Logger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger that prefixes every entry with args. Loggers that are
// not slog backed are wrapped so the fields are still emitted.
func With(l Logger, args ...any) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	if s, ok := l.(*SlogAdapter); ok {
		return &SlogAdapter{Logger: s.Logger.With(args...)}
	}
	if _, ok := l.(NoOpLogger); ok {
		return l
	}
	return &fieldLogger{next: l, fields: args}
}

type fieldLogger struct {
	next   Logger
	fields []any
}

func (f *fieldLogger) merge(args []any) []any {
	out := make([]any, 0, len(f.fields)+len(args))
	out = append(out, f.fields...)
	return append(out, args...)
}

func (f *fieldLogger) Debug(msg string, args ...any) { f.next.Debug(msg, f.merge(args)...) }
func (f *fieldLogger) Info(msg string, args ...any)  { f.next.Info(msg, f.merge(args)...) }
func (f *fieldLogger) Warn(msg string, args ...any)  { f.next.Warn(msg, f.merge(args)...) }
func (f *fieldLogger) Error(msg string, args ...any) { f.next.Error(msg, f.merge(args)...) }

// LogToolCall records execution details for a tool invocation.
func LogToolCall(l Logger, tool string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool.call.failed", "tool", tool, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("tool.call.completed", "tool", tool, "duration_ms", dur.Milliseconds())
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
