package core

import (
	"context"

	"github.com/dundas/lightauth/db"
)

// ValidateSession resolves a presented session identifier to its account.
// Unknown and expired sessions come back as (nil, nil, nil); only store
// failures are errors.
func (a *App) ValidateSession(ctx context.Context, sessionID string) (*db.User, *db.Session, error) {
	if sessionID == "" {
		return nil, nil, nil
	}
	user, session, err := a.db.ValidateSession(ctx, sessionID)
	if err != nil {
		return nil, nil, storeError(err)
	}
	return user, session, nil
}

// Logout deletes one session. Deleting a session that is already gone is
// not an error.
func (a *App) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := a.db.DeleteSession(ctx, sessionID); err != nil {
		return storeError(err)
	}
	return nil
}

// LogoutAll deletes every session of one user and reports how many there
// were.
func (a *App) LogoutAll(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrMissingFields
	}
	n, err := a.db.DeleteAllUserSessions(ctx, userID)
	if err != nil {
		return 0, storeError(err)
	}
	a.logger.Info("sessions invalidated", "user_id", userID, "count", n)
	return n, nil
}
