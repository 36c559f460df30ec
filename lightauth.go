// Package lightauth assembles the auth core from a configuration file and a
// database, wiring credential issuance, session lifecycle and the oauth2
// sign in flow behind one constructor. The heavy lifting lives in the
// subpackages; this package only glues them together with usable defaults.
package lightauth

import (
	"github.com/dundas/lightauth/config"
	"github.com/dundas/lightauth/core"
	"github.com/dundas/lightauth/oauth2"
)

// New loads the TOML configuration at configPath and builds the application
// core. A database option such as WithDbZombiezen or WithDbPostgres is
// required; everything else has defaults. Options run in order, so later
// options override the defaults set up here.
//
// The returned app holds an oauth2 flow bound to the loaded configuration;
// call Close on shutdown to release it.
func New(configPath string, opts ...core.Option) (*core.App, error) {
	cfg, err := config.Load(configPath, nil)
	if err != nil {
		return nil, err
	}
	return newWithProvider(config.NewProvider(cfg), opts...)
}

// NewWithConfig builds the application core from an in memory configuration,
// for callers that manage configuration themselves. The config should have
// passed config.Validate.
func NewWithConfig(cfg *config.Config, opts ...core.Option) (*core.App, error) {
	return newWithProvider(config.NewProvider(cfg), opts...)
}

func newWithProvider(provider *config.Provider, opts ...core.Option) (*core.App, error) {
	logger := NewLogger(provider.Get().Log)

	flow, err := oauth2.NewFlow(provider, logger)
	if err != nil {
		return nil, err
	}

	allOpts := []core.Option{
		core.WithConfigProvider(provider),
		core.WithLogger(logger),
		core.WithOauth2Flow(flow),
	}
	allOpts = append(allOpts, opts...)

	app, err := core.NewApp(allOpts...)
	if err != nil {
		flow.Close()
		return nil, err
	}
	return app, nil
}
