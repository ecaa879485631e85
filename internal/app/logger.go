package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/daxida/kty/internal/config"
)

// NewLogger creates a *slog.Logger from cfg writing to w (stderr when nil)
// and installs it with slog.SetDefault.
//
// Format "json" produces one JSON object per line. Format "text" produces
// key=value output with source locations. Level is one of debug, info, warn,
// error (case-insensitive) and defaults to info.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
