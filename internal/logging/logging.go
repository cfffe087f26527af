// Package logging provides structured logging using Go's log/slog.
//
// Configuration is controlled via environment variables:
//   - CODEINTEL_LOG_LEVEL: debug, info, warn, error (default: info)
//   - CODEINTEL_LOG_FORMAT: text, json (default: text)
//
// All logging goes to stderr; stdout carries the editor protocol stream.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log levels re-exported for convenience
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

const (
	envLevel  = "CODEINTEL_LOG_LEVEL"
	envFormat = "CODEINTEL_LOG_FORMAT"
)

// Config holds logging configuration
type Config struct {
	Level  slog.Level
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stderr
	Source string    // component name for context
}

// DefaultConfig returns sensible defaults for the given source component.
func DefaultConfig(source string) Config {
	return Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
		Source: source,
	}
}

// ParseLevel maps a level name to a slog level. Unknown names report false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// LoadConfigFromEnv reads logging config from environment variables.
// Unknown level names leave the default in place.
func LoadConfigFromEnv(source string) Config {
	cfg := DefaultConfig(source)

	if level := os.Getenv(envLevel); level != "" {
		if lvl, ok := ParseLevel(level); ok {
			cfg.Level = lvl
		}
	}

	if format := os.Getenv(envFormat); format != "" {
		cfg.Format = strings.ToLower(format)
	}

	return cfg
}

// New creates a configured slog.Logger with the given configuration.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler).With("source", cfg.Source)
}

// Default returns a logger with configuration loaded from environment.
// This is the recommended way to create a logger in CLI entry points.
func Default(source string) *slog.Logger {
	return New(LoadConfigFromEnv(source))
}

// Component derives a child logger tagged with a component name.
// A nil parent yields a discarding logger.
func Component(parent *slog.Logger, name string) *slog.Logger {
	if parent == nil {
		return Nop()
	}
	return parent.With("component", name)
}

// Nop returns a logger that discards all output.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
