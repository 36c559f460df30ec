package config

import (
	"sync"
)

// Provider handles concurrent access to the application configuration.
// Consumers call Get on every use instead of caching the result, so a
// Reload becomes visible without restarting the process.
type Provider struct {
	mu     sync.RWMutex
	config *Config
}

// NewProvider creates a configuration provider with an initial config.
// It panics if the initial config is nil; starting without configuration
// is a programming error, not a runtime condition.
func NewProvider(cfg *Config) *Provider {
	if cfg == nil {
		panic("config: initial configuration cannot be nil")
	}
	return &Provider{config: cfg}
}

// Get returns the current configuration. The returned pointer is shared;
// callers must treat it as read-only.
func (p *Provider) Get() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// Update atomically replaces the current configuration.
func (p *Provider) Update(newConfig *Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = newConfig
}
