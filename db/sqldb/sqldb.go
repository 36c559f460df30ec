// Package sqldb implements the db store interfaces on top of any
// executor.Executor. One body of store logic serves the embedded SQLite
// drivers, Postgres and remote HTTP stores alike; the adapters only run
// statements and classify failures.
//
// SQL here sticks to the dialect intersection the backends share:
// positional ? placeholders (rewritten by adapters that need it), RETURNING
// clauses, and RFC3339 UTC text timestamps compared as strings.
package sqldb

import (
	"errors"
	"time"

	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
)

// Db implements db.DbApp over an executor.
type Db struct {
	exec executor.Executor
	now  func() time.Time
}

var _ db.DbApp = (*Db)(nil)

// Option tweaks store construction.
type Option func(*Db)

// WithClock replaces the wall clock used for created/updated stamps and
// expiry comparisons. For tests.
func WithClock(now func() time.Time) Option {
	return func(d *Db) { d.now = now }
}

// New builds a store over exec. Wrap exec in executor.NewResilient first to
// get timeouts and retries; the store itself never retries.
func New(exec executor.Executor, opts ...Option) (*Db, error) {
	if exec == nil {
		return nil, errors.New("sqldb: executor is nil")
	}
	d := &Db{exec: exec, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// nullable maps the empty string to NULL, keeping absent passwords and
// provider identities distinguishable from empty text.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
