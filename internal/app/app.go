package app

import (
	"io"
	"log/slog"

	"github.com/daxida/kty/internal/config"
)

// Bootstrap loads configuration from path (see config.Load for the lookup
// order) and initializes the logger writing to w.
func Bootstrap(path string, w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger := NewLogger(cfg.Log, w)
	logger.Debug("configuration loaded",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("root", cfg.Run.Root),
		slog.Int("pairs", len(cfg.Run.Pairs)),
	)

	return cfg, logger, nil
}
