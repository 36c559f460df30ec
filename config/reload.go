package config

import (
	"fmt"
	"io"
	"log/slog"
)

// Reload re-reads the configuration file the provider was originally loaded
// from and swaps it in. The current configuration stays untouched when the
// new one fails to load or validate.
func Reload(provider *Provider, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	logger.Debug("Reload: Attempting to load new configuration", "path", path)
	newCfg, err := Load(path, logger)
	if err != nil {
		logger.Error("Reload: Failed to load new configuration", "path", path, "error", err)
		return fmt.Errorf("failed to reload configuration from %s: %w", path, err)
	}

	provider.Update(newCfg)
	logger.Info("Reload: Configuration successfully reloaded and updated in provider", "path", path)
	return nil
}
