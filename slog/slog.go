// Package slog provides log/slog decorators for learnsearch services and the
// logger construction used by the CLI.
package slog

import (
	"io"
	"log/slog"
	"strings"

	"github.com/sbomma1973/learnsearch"
)

// NewLogger builds a logger writing to w. Format "json" selects a JSON
// handler; anything else is text. Unknown levels fall back to info.
func NewLogger(w io.Writer, cfg learnsearch.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
