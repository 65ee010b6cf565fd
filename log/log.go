package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger is the structured logger used across the module.
type Logger = *slog.Logger

type loggerOptions struct {
	level       slog.Level
	development bool
	writer      io.Writer
}

type LoggerOption func(opts *loggerOptions)

// WithLevel sets the minimum level that is logged.
func WithLevel(level slog.Level) LoggerOption {
	return func(opts *loggerOptions) {
		opts.level = level
	}
}

// WithDevelopment switches to a colored, human readable console handler.
func WithDevelopment() LoggerOption {
	return func(opts *loggerOptions) {
		opts.development = true
	}
}

// WithWriter overrides the log destination (stderr by default).
func WithWriter(w io.Writer) LoggerOption {
	return func(opts *loggerOptions) {
		opts.writer = w
	}
}

func NewLogger(opts ...LoggerOption) *slog.Logger {
	o := loggerOptions{
		level:  slog.LevelInfo,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.development {
		return slog.New(tint.NewHandler(o.writer, &tint.Options{
			Level:      o.level,
			TimeFormat: time.Kitchen,
		}))
	}

	return slog.New(slog.NewJSONHandler(o.writer, &slog.HandlerOptions{
		Level: o.level,
	}))
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
