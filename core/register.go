package core

import (
	"context"
	"errors"

	"github.com/dundas/lightauth/db"
)

// RegisterResult is a completed registration. The verification token is
// returned to the caller for delivery; the core never sends mail itself.
type RegisterResult struct {
	User              *db.User
	Session           *db.Session
	VerificationToken *db.EmailVerificationToken
}

// Register creates an unverified password account, issues its email
// verification token and signs the user in.
//
// A taken email reports ErrEmailConflict; the unique index decides, so two
// concurrent registrations cannot both win.
func (a *App) Register(ctx context.Context, email, password string, client ClientInfo) (*RegisterResult, error) {
	email = db.NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, ErrInvalidInput.withCause(err)
	}
	if err := a.validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, ErrInternal.withCause(err)
	}

	user, err := a.db.CreateUserWithPassword(ctx, db.User{Email: email, Password: hash})
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			return nil, ErrEmailConflict
		}
		return nil, storeError(err)
	}

	token, err := a.issueVerificationToken(ctx, user)
	if err != nil {
		return nil, err
	}

	session, err := a.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, err
	}

	a.logger.Info("user registered", "user_id", user.ID)
	return &RegisterResult{User: user, Session: session, VerificationToken: token}, nil
}
