package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/daxida/kty/internal/domain"
)

// DefaultPath is read when neither a path nor CONFIG_PATH is given.
const DefaultPath = "./kty.yaml"

// Load reads the YAML file at path, then environment overrides, then
// defaults from env-default tags, and validates the result.
//
// An empty path falls back to CONFIG_PATH and then DefaultPath. Only a
// missing DefaultPath is tolerated; the run is then configured from the
// environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	switch _, err := os.Stat(path); {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, path, err)
		}
	case explicit:
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, &domain.IOError{Path: path, Err: err})
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%w: read env: %w", domain.ErrConfiguration, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
