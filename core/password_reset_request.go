package core

import (
	"context"

	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
)

// DeliverTokenFunc hands a freshly issued single use token to a delivery
// channel, usually outgoing mail. The email is the normalized address of the
// account the token belongs to.
type DeliverTokenFunc func(ctx context.Context, email, token string) error

// RequestPasswordReset issues a reset token for the account behind email and
// passes it to deliver.
//
// The outcome is success shaped whether or not the account exists: the token
// never appears in a return value, and deliver only runs for existing
// accounts with a password, so a caller observing the function learns
// nothing about the address. Accounts without a password cannot be reset
// into one; oauth2 only users sign in through their provider.
func (a *App) RequestPasswordReset(ctx context.Context, email string, deliver DeliverTokenFunc) error {
	email = db.NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return ErrInvalidInput.withCause(err)
	}

	user, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		return storeError(err)
	}
	if user == nil {
		a.suppressEnumeration("password_reset_request", "no account for email")
		return nil
	}
	if !user.HasPassword() {
		a.suppressEnumeration("password_reset_request", "account has no password")
		return nil
	}

	value, err := crypto.NewToken()
	if err != nil {
		return ErrInternal.withCause(err)
	}
	token := db.PasswordResetToken{
		Token:     value,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: a.now().Add(a.Config().Tokens.ResetTokenDuration.Duration),
	}
	if err := a.db.CreatePasswordResetToken(ctx, token); err != nil {
		return storeError(err)
	}

	if deliver != nil {
		if err := deliver(ctx, user.Email, value); err != nil {
			a.logger.Error("reset token delivery failed", "user_id", user.ID, "error", err)
			return ErrServiceUnavailable.withCause(err)
		}
	}

	a.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}
