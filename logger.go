package flatdict

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with dictionary-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithDictionary adds a dictionary name field to the logger.
func (l *Logger) WithDictionary(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dictionary", name),
	}
}

// LogLoad logs the outcome of a loader pass.
func (l *Logger) LogLoad(ctx context.Context, name string, rows, buckets int, bytes int64, took time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dictionary load failed",
			"dictionary", name,
			"rows", rows,
			"buckets", buckets,
			"duration", took,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dictionary loaded",
			"dictionary", name,
			"rows", rows,
			"buckets", buckets,
			"bytes", bytes,
			"duration", took,
		)
	}
}

// LogReload logs a reload and publication.
func (l *Logger) LogReload(ctx context.Context, name string, published bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "dictionary reload failed",
			"dictionary", name,
			"published", published,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dictionary reloaded",
			"dictionary", name,
		)
	}
}

// LogClone logs a deep copy of a dictionary.
func (l *Logger) LogClone(ctx context.Context, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dictionary clone failed",
			"dictionary", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dictionary cloned",
			"dictionary", name,
			"bytes", bytes,
		)
	}
}

// LogRetire logs that a generation has been freed.
func (l *Logger) LogRetire(ctx context.Context, name string, bytes int64) {
	l.DebugContext(ctx, "dictionary generation retired",
		"dictionary", name,
		"bytes", bytes,
	)
}
