package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the service logger. Production emits JSON at info
// level; everywhere else a text handler with debug enabled is used so
// local runs show the sale and stock breakdown traces.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{AddSource: true, Level: level}

	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "mercadito"))
}
