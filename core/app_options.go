package core

import (
	"log/slog"

	"github.com/dundas/lightauth/config"
	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
	"github.com/dundas/lightauth/oauth2"
)

type Option func(*App)

// WithDbApp sets the store the workflows run against. It takes precedence
// over WithDbExecutor.
func WithDbApp(d db.DbApp) Option {
	return func(a *App) {
		a.db = d
	}
}

// WithDbExecutor runs the workflows on the standard store built over exec.
// NewApp wraps exec with the retry policy from the configuration, so the
// backend only has to execute single statements.
func WithDbExecutor(exec executor.Executor) Option {
	return func(a *App) {
		a.dbExec = exec
	}
}

// WithHasher overrides the password hasher built from config.
func WithHasher(h crypto.Hasher) Option {
	return func(a *App) {
		a.hasher = h
	}
}

// WithConfigProvider sets the application's configuration provider.
func WithConfigProvider(p *config.Provider) Option {
	return func(a *App) {
		a.configProvider = p
	}
}

// WithLogger sets the logger implementation.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithOauth2Flow enables the oauth2 workflows. Without it BeginOauth2 and
// CompleteOauth2 report every provider as not configured.
func WithOauth2Flow(f *oauth2.Flow) Option {
	return func(a *App) {
		a.flow = f
	}
}
