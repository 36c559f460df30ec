package core

import (
	"context"

	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
)

// VerifyEmail redeems a verification token and marks the account's email as
// confirmed. Tokens are single use: a redeemed token is deleted, an expired
// one is deleted as it is reported.
func (a *App) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingFields
	}

	row, err := a.db.GetVerificationToken(ctx, token)
	if err != nil {
		return storeError(err)
	}
	if row == nil {
		return ErrInvalidToken
	}
	if !row.ExpiresAt.After(a.now()) {
		if err := a.db.DeleteVerificationToken(ctx, token); err != nil {
			return storeError(err)
		}
		return ErrTokenExpired
	}

	if err := a.db.VerifyEmail(ctx, row.UserID); err != nil {
		return storeError(err)
	}
	if err := a.db.DeleteVerificationToken(ctx, token); err != nil {
		return storeError(err)
	}

	a.logger.Info("email verified", "user_id", row.UserID)
	return nil
}

// issueVerificationToken stores a fresh verification token for the user.
// The store voids any earlier tokens of the same user, so at most one is
// redeemable at a time.
func (a *App) issueVerificationToken(ctx context.Context, user *db.User) (*db.EmailVerificationToken, error) {
	value, err := crypto.NewToken()
	if err != nil {
		return nil, ErrInternal.withCause(err)
	}
	token := db.EmailVerificationToken{
		Token:     value,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: a.now().Add(a.Config().Tokens.VerificationTokenDuration.Duration),
	}
	if err := a.db.CreateVerificationToken(ctx, token); err != nil {
		return nil, storeError(err)
	}
	return &token, nil
}
