package core

import (
	"context"

	"github.com/dundas/lightauth/db"
)

// VerifyResetToken checks a reset token without consuming it, so a client
// can validate the link before showing the new password form. It returns the
// token row, identifying the account, when the token is redeemable.
func (a *App) VerifyResetToken(ctx context.Context, token string) (*db.PasswordResetToken, error) {
	if token == "" {
		return nil, ErrMissingFields
	}

	row, err := a.db.GetPasswordResetToken(ctx, token)
	if err != nil {
		return nil, storeError(err)
	}
	if row == nil {
		return nil, ErrInvalidToken
	}
	if !row.ExpiresAt.After(a.now()) {
		return nil, ErrTokenExpired
	}
	return row, nil
}

// ResetPassword redeems a reset token and replaces the account's password.
//
// The new password is checked against policy before the token is looked up,
// so a rejected password does not burn the token. After the update the token
// is deleted and every session of the user is invalidated; the client must
// sign in again with the new password.
func (a *App) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := a.validatePassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return ErrMissingFields
	}

	row, err := a.db.GetPasswordResetToken(ctx, token)
	if err != nil {
		return storeError(err)
	}
	if row == nil {
		return ErrInvalidToken
	}
	if !row.ExpiresAt.After(a.now()) {
		if err := a.db.DeletePasswordResetToken(ctx, token); err != nil {
			return storeError(err)
		}
		return ErrTokenExpired
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return ErrInternal.withCause(err)
	}
	if err := a.db.UpdatePassword(ctx, row.UserID, hash); err != nil {
		return storeError(err)
	}
	if err := a.db.DeletePasswordResetToken(ctx, token); err != nil {
		return storeError(err)
	}

	sessions, err := a.db.DeleteAllUserSessions(ctx, row.UserID)
	if err != nil {
		return storeError(err)
	}

	a.logger.Info("password reset", "user_id", row.UserID, "sessions_invalidated", sessions)
	return nil
}
