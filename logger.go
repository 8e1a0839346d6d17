package stboxidx

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with stboxidx-specific context.
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

// WithIndex adds an index field to the logger.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", name),
	}
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogBuild logs a CREATE INDEX build.
func (l *Logger) LogBuild(ctx context.Context, index, table string, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"index", index,
			"table", table,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index build completed",
			"index", index,
			"table", table,
			"entries", entries,
		)
	}
}

// LogScan logs an index search.
func (l *Logger) LogScan(ctx context.Context, index string, matches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index scan failed",
			"index", index,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index scan completed",
			"index", index,
			"matches", matches,
		)
	}
}

// LogRewrite logs the outcome of a rewrite attempt.
func (l *Logger) LogRewrite(ctx context.Context, matched bool) {
	if matched {
		l.DebugContext(ctx, "scan rewritten to index scan")
	} else {
		l.DebugContext(ctx, "scan left unchanged")
	}
}
