package core

import (
	"context"

	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
)

// Login checks a password credential and signs the user in.
//
// An unknown email, an account without a password and a wrong password all
// report the same ErrInvalidCredentials, and all three paths pay for one
// hash verification, so neither the outcome nor its timing reveals whether
// the account exists.
func (a *App) Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error) {
	email = db.NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, ErrInvalidInput.withCause(err)
	}
	if password == "" {
		return nil, ErrMissingFields
	}

	user, err := a.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, storeError(err)
	}

	if !a.checkPassword(user, password) {
		a.suppressEnumeration("login", "credential check failed")
		return nil, ErrInvalidCredentials
	}

	session, err := a.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, err
	}

	a.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{User: user, Session: session}, nil
}

// checkPassword verifies a candidate against the account's stored value.
// When the account is absent or passwordless it verifies against the decoy
// digest instead, keeping the work per attempt constant.
func (a *App) checkPassword(user *db.User, candidate string) bool {
	stored := a.decoyHash
	if user != nil && user.HasPassword() {
		stored = user.Password
	}
	ok := crypto.VerifyStored(stored, candidate)
	if user == nil || !user.HasPassword() {
		return false
	}
	return ok
}
