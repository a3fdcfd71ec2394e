package distvec

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with distvec-specific context.
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

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSizes adds the global/local size pair to the logger.
func (l *Logger) WithSizes(globalSize, localSize int) *Logger {
	return &Logger{
		Logger: l.Logger.With("global_size", globalSize, "local_size", localSize),
	}
}

// LogInit logs an init operation.
func (l *Logger) LogInit(globalSize, localSize, ghosts int, err error) {
	sized := l.WithSizes(globalSize, localSize)
	if err != nil {
		sized.Error("init failed",
			"ghosts", ghosts,
			"error", err,
		)
	} else {
		sized.Debug("init completed",
			"ghosts", ghosts,
		)
	}
}

// LogClose logs an assembly (close) operation.
func (l *Logger) LogClose(ghosted bool, err error) {
	if err != nil {
		l.Error("close failed",
			"ghosted", ghosted,
			"error", err,
		)
	} else {
		l.Debug("close completed",
			"ghosted", ghosted,
		)
	}
}

// LogClear logs a clear operation.
func (l *Logger) LogClear(destroyed bool) {
	l.Debug("clear completed",
		"storage_destroyed", destroyed,
	)
}

// LogLocalize logs a localize operation.
func (l *Logger) LogLocalize(count int, err error) {
	if err != nil {
		l.Error("localize failed",
			"count", count,
			"error", err,
		)
	} else {
		l.Debug("localize completed",
			"count", count,
		)
	}
}
