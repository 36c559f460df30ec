package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads the TOML configuration file at path. The file is applied on
// top of NewDefaultConfig, so a minimal file only has to name the values it
// changes. Secrets absent from the file are generated fresh on every load.
//
// Provider credentials are never read from the file; after parsing, each
// provider's ClientID and ClientSecret are resolved from the environment
// variables the file names.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read configuration file", "path", path, "error", err)
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(raw, cfg); err != nil {
		logger.Error("failed to unmarshal TOML", "path", path, "error", err)
		return nil, fmt.Errorf("config: failed to unmarshal TOML: %w", err)
	}

	for name, provider := range cfg.OAuth2Providers {
		provider.FillEnvVars()
		cfg.OAuth2Providers[name] = provider
	}

	if err := Validate(cfg); err != nil {
		logger.Error("configuration validation failed", "path", path, "error", err)
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg.Source = path
	logger.Info("successfully loaded configuration", "path", path)
	return cfg, nil
}
