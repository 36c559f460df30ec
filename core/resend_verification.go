package core

import (
	"context"

	"github.com/dundas/lightauth/db"
)

// ResendVerification issues a replacement verification token for an
// unverified account, voiding any earlier one.
//
// When no account matches the email the returned token is nil and the error
// is nil as well: callers report the same generic outcome either way so the
// endpoint cannot be used to probe for accounts. An account that is already
// verified reports ErrAlreadyVerified; that state is not a secret worth
// hiding and the client should stop asking.
func (a *App) ResendVerification(ctx context.Context, email string) (*db.EmailVerificationToken, error) {
	email = db.NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, ErrInvalidInput.withCause(err)
	}

	user, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storeError(err)
	}
	if user == nil {
		a.suppressEnumeration("resend_verification", "no account for email")
		return nil, nil
	}
	if user.Verified {
		return nil, ErrAlreadyVerified
	}

	return a.issueVerificationToken(ctx, user)
}
