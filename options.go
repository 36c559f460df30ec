package lightauth

import (
	"fmt"
	"log/slog"
	"os"

	crawshawPool "crawshaw.io/sqlite/sqlitex"
	"github.com/jackc/pgx/v5/pgxpool"
	phuslog "github.com/phuslu/log"
	zombiezenPool "zombiezen.com/go/sqlite/sqlitex"

	"github.com/dundas/lightauth/config"
	"github.com/dundas/lightauth/core"
	"github.com/dundas/lightauth/db/crawshaw"
	"github.com/dundas/lightauth/db/postgres"
	"github.com/dundas/lightauth/db/remote"
	"github.com/dundas/lightauth/db/zombiezen"
)

// WithDbCrawshaw runs the store on an existing crawshaw SQLite pool. The
// caller owns the pool's lifecycle. Panics when the backend cannot be
// built, which only happens with a nil pool.
func WithDbCrawshaw(pool *crawshawPool.Pool) core.Option {
	exec, err := crawshaw.New(pool)
	if err != nil {
		panic(fmt.Sprintf("lightauth: initializing crawshaw backend: %v", err))
	}
	return core.WithDbExecutor(exec)
}

// WithDbZombiezen runs the store on an existing zombiezen SQLite pool. The
// caller owns the pool's lifecycle.
func WithDbZombiezen(pool *zombiezenPool.Pool) core.Option {
	exec, err := zombiezen.New(pool)
	if err != nil {
		panic(fmt.Sprintf("lightauth: initializing zombiezen backend: %v", err))
	}
	return core.WithDbExecutor(exec)
}

// WithDbPostgres runs the store on an existing pgx pool. The caller owns the
// pool's lifecycle.
func WithDbPostgres(pool *pgxpool.Pool) core.Option {
	exec, err := postgres.New(pool)
	if err != nil {
		panic(fmt.Sprintf("lightauth: initializing postgres backend: %v", err))
	}
	return core.WithDbExecutor(exec)
}

// WithDbRemote runs the store against a remote HTTP SQL service. Panics when
// the configuration is invalid; remote.New names what is wrong.
func WithDbRemote(cfg remote.Config) core.Option {
	exec, err := remote.New(cfg)
	if err != nil {
		panic(fmt.Sprintf("lightauth: initializing remote backend: %v", err))
	}
	return core.WithDbExecutor(exec)
}

// NewLogger builds the default slog logger for the given settings: phuslu
// backed JSON output, or the standard text handler when Format is "text".
func NewLogger(cfg config.Log) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.Level}
	if cfg.JSON() {
		return slog.New(phuslog.SlogNewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// WithPhusLogger configures slog with phuslu/log's JSON handler. A nil opts
// logs everything at info and above.
func WithPhusLogger(opts *slog.HandlerOptions) core.Option {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: slog.LevelInfo}
	}
	return core.WithLogger(slog.New(phuslog.SlogNewJSONHandler(os.Stderr, opts)))
}

// WithTextLogger configures slog with the standard library's text handler.
func WithTextLogger(opts *slog.HandlerOptions) core.Option {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: slog.LevelInfo}
	}
	return core.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}
