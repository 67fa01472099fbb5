// Package szlog provides the structured logger used across szdt's
// core and CLI. It wraps slog.Logger with a handful of helpers for
// attaching run/operation context, following the shape of the
// logging package in the Accumulate lite client this module was
// adapted from.
package szlog

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps *slog.Logger with szdt-specific context helpers.
type Logger struct {
	*slog.Logger
}

// Config controls the output format of a Logger.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
	Output *os.File
}

// DefaultConfig returns the configuration used when none is supplied:
// human-readable text on stderr at Info level.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// New builds a Logger from the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

var def = New(DefaultConfig())

// Default returns the package-level default logger.
func Default() *Logger { return def }

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) { def = l }

// WithRun returns a logger tagged with a run correlation ID, for
// tying together every log line emitted during one archive or
// unarchive invocation.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", runID)}
}

// WithComponent tags the logger with the component emitting the log.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// Duration is a convenience slog.Attr constructor for timings.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Int64(key, d.Milliseconds())
}
