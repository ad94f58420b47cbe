package paramvec

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with paramvec-specific helpers.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithLabel adds a member label field to the logger.
func (l *Logger) WithLabel(label string) *Logger {
	return &Logger{
		Logger: l.Logger.With("label", label),
	}
}

// WithParamCount adds a parameter count field to the logger.
func (l *Logger) WithParamCount(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("params", n),
	}
}

// LogRebuild logs an allocation-reconciliation pass.
func (l *Logger) LogRebuild(removed, added, total int, err error) {
	if err != nil {
		l.Error("rebuild failed",
			"removed", removed,
			"added", added,
			"error", err,
		)
	} else {
		l.Debug("rebuild completed",
			"removed", removed,
			"added", added,
			"params", total,
		)
	}
}

// LogSnapshot logs a snapshot save or load. op is "save" or "load".
func (l *Logger) LogSnapshot(op string, bytes int, err error) {
	if err != nil {
		l.Error("snapshot "+op+" failed",
			"error", err,
		)
		return
	}
	l.Debug("snapshot "+op+" completed",
		"bytes", bytes,
	)
}

// LogClean logs a value-reconciliation pass.
func (l *Logger) LogClean(cleaned int) {
	l.Debug("clean completed",
		"members_cleaned", cleaned,
	)
}

// LogFromVector logs a vector load.
func (l *Logger) LogFromVector(n int, err error) {
	if err != nil {
		l.Error("from-vector failed",
			"len", n,
			"error", err,
		)
	} else {
		l.Debug("from-vector completed",
			"len", n,
		)
	}
}
