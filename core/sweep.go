package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PurgeStats reports how many expired rows one sweep removed.
type PurgeStats struct {
	Sessions           int64
	VerificationTokens int64
	ResetTokens        int64
}

// PurgeExpired deletes expired sessions and tokens. It is a plain call with
// no scheduling of its own; run it from cron or whatever timer the host
// application has. Sweeps are idempotent and safe to run from several
// processes at once, each delete only counts rows it removed itself.
func (a *App) PurgeExpired(ctx context.Context) (PurgeStats, error) {
	var stats PurgeStats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.db.CleanupExpiredSessions(ctx)
		stats.Sessions = n
		return err
	})
	g.Go(func() error {
		n, err := a.db.CleanupExpiredVerificationTokens(ctx)
		stats.VerificationTokens = n
		return err
	})
	g.Go(func() error {
		n, err := a.db.CleanupExpiredPasswordResetTokens(ctx)
		stats.ResetTokens = n
		return err
	})
	if err := g.Wait(); err != nil {
		return stats, storeError(err)
	}

	a.logger.Info("expired rows purged",
		"sessions", stats.Sessions,
		"verification_tokens", stats.VerificationTokens,
		"reset_tokens", stats.ResetTokens)
	return stats, nil
}
