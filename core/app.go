// Package core implements the authentication workflows: registration, login,
// email verification, password reset, oauth2 sign in and session lifecycle.
//
// The package is transport agnostic. Every workflow is a method on App taking
// a context and plain values; failures come back as *Error carrying a stable
// code and a Kind callers can map to their own status scheme.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dundas/lightauth/config"
	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
	"github.com/dundas/lightauth/db/sqldb"
	"github.com/dundas/lightauth/oauth2"
)

// App holds the collaborators the workflows run against. db connections and
// other heavy objects go here; all workflows have App as receiver.
type App struct {
	db             db.DbApp
	dbExec         executor.Executor
	hasher         crypto.Hasher
	configProvider *config.Provider
	logger         *slog.Logger
	flow           *oauth2.Flow

	// now is the clock every expiry decision reads. Tests replace it.
	now func() time.Time

	// decoyHash is a digest of a throwaway value, verified against when a
	// login names an absent or passwordless account so both paths cost one
	// verification.
	decoyHash string
}

// ClientInfo carries the request metadata recorded on new sessions.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AuthResult is a completed sign in: the account and its fresh session.
type AuthResult struct {
	User    *db.User
	Session *db.Session
}

// NewApp builds an App from options. A database and a config provider are
// required; the hasher defaults to the configured algorithm and the logger
// to discard. A database given as a bare executor (WithDbExecutor) is
// wrapped with the configured retry policy and the standard store.
func NewApp(opts ...Option) (*App, error) {
	a := &App{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	if a.db == nil && a.dbExec == nil {
		return nil, errors.New("core: database is required (use WithDbApp or a WithDbExecutor backend)")
	}
	if a.configProvider == nil {
		return nil, errors.New("core: config provider is required (use WithConfigProvider)")
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if a.hasher == nil {
		h, err := a.configProvider.Get().Hasher.New()
		if err != nil {
			return nil, fmt.Errorf("core: building hasher from config: %w", err)
		}
		a.hasher = h
	}
	if a.db == nil {
		resilient, err := executor.NewResilient(a.dbExec, a.configProvider.Get().Executor.Policy(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("core: building resilient executor: %w", err)
		}
		store, err := sqldb.New(resilient)
		if err != nil {
			return nil, fmt.Errorf("core: building store: %w", err)
		}
		a.db = store
	}

	decoy, err := a.hasher.Hash(crypto.RandomString(32, crypto.AlphanumericAlphabet))
	if err != nil {
		return nil, fmt.Errorf("core: computing decoy hash: %w", err)
	}
	a.decoyHash = decoy

	return a, nil
}

// Close releases resources held by the app's collaborators. The database
// pool is owned by whoever opened it and stays untouched.
func (a *App) Close() {
	if a.flow != nil {
		a.flow.Close()
	}
}

// Db returns the store the workflows run against, exposing the session and
// token primitives directly.
func (a *App) Db() db.DbApp {
	return a.db
}

func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) Hasher() crypto.Hasher {
	return a.hasher
}

// Config returns the current configuration snapshot.
func (a *App) Config() *config.Config {
	return a.configProvider.Get()
}

// createSession issues a fresh session for the user, stamped with the
// client metadata and the configured lifetime.
func (a *App) createSession(ctx context.Context, userID string, client ClientInfo) (*db.Session, error) {
	id, err := crypto.NewSessionID()
	if err != nil {
		return nil, ErrInternal.withCause(err)
	}
	session, err := a.db.CreateSession(ctx, db.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: a.now().Add(a.Config().Tokens.SessionDuration.Duration),
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		return nil, storeError(err)
	}
	return session, nil
}

// suppressEnumeration records why an enumeration sensitive workflow did
// nothing while its caller still reports the generic success outcome. Every
// workflow that masks account absence funnels through here.
func (a *App) suppressEnumeration(workflow, reason string) {
	a.logger.Debug("request completed without effect", "workflow", workflow, "reason", reason)
}
