// Package db defines the persistence model of the auth core: the entities,
// the store interfaces the workflows depend on, and the conventions every
// backend follows. Timestamps are stored as RFC3339 text in UTC, absent
// passwords are NULL, and lookups report a missing row as a nil result with
// a nil error rather than a sentinel.
package db

import (
	"context"
	"errors"
)

// Sentinel errors backends translate driver failures into. Callers compare
// with errors.Is and never see driver error types.
var (
	// ErrConstraintUnique signals a violated unique constraint, usually an
	// email or provider identity that is already taken.
	ErrConstraintUnique = errors.New("unique constraint violation")

	// ErrUnknownProvider signals an Oauth2Provider value this build does
	// not know.
	ErrUnknownProvider = errors.New("unknown oauth2 provider")
)

// DbAuth is the user identity surface: lookups, account creation and the
// credential mutations the auth workflows perform.
//
// All lookups return (nil, nil) when no row matches.
type DbAuth interface {
	GetUserById(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByOauth2(ctx context.Context, provider Oauth2Provider, externalID string) (*User, error)

	// CreateUserWithPassword inserts a password account. A taken email
	// surfaces as ErrConstraintUnique.
	CreateUserWithPassword(ctx context.Context, user User) (*User, error)

	// UpsertUserWithOauth2 links profile to an account: by provider
	// identity first, then by email, creating the account when neither
	// matches. A provider confirmed email may flip Verified to true; the
	// flag is never cleared.
	UpsertUserWithOauth2(ctx context.Context, profile Oauth2Profile) (*User, error)

	// UpdatePassword replaces the stored password value. Session
	// invalidation is the caller's job, see DeleteAllUserSessions.
	UpdatePassword(ctx context.Context, userID string, newPassword string) error

	// VerifyEmail marks the account's email as confirmed.
	VerifyEmail(ctx context.Context, userID string) error
}

// DbSession is the session lifecycle surface.
type DbSession interface {
	CreateSession(ctx context.Context, session Session) (*Session, error)

	// ValidateSession resolves a presented session identifier to its user
	// in one round trip. Expired and unknown sessions return (nil, nil,
	// nil); expiry is checked against the store clock, not deleted as a
	// side effect.
	ValidateSession(ctx context.Context, id string) (*User, *Session, error)

	DeleteSession(ctx context.Context, id string) error

	// DeleteAllUserSessions removes every session of one user and reports
	// how many went away.
	DeleteAllUserSessions(ctx context.Context, userID string) (int64, error)

	// CleanupExpiredSessions deletes sessions past their expiry. Safe to
	// run concurrently from multiple processes; reports rows removed by
	// this call.
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// DbToken is the single-use token surface for the email driven flows.
type DbToken interface {
	// CreateVerificationToken stores a fresh token, voiding any earlier
	// ones for the same user.
	CreateVerificationToken(ctx context.Context, token EmailVerificationToken) error
	GetVerificationToken(ctx context.Context, token string) (*EmailVerificationToken, error)
	DeleteVerificationToken(ctx context.Context, token string) error
	CleanupExpiredVerificationTokens(ctx context.Context) (int64, error)

	// CreatePasswordResetToken stores a fresh token, voiding any earlier
	// ones for the same user.
	CreatePasswordResetToken(ctx context.Context, token PasswordResetToken) error
	GetPasswordResetToken(ctx context.Context, token string) (*PasswordResetToken, error)
	DeletePasswordResetToken(ctx context.Context, token string) error
	CleanupExpiredPasswordResetTokens(ctx context.Context) (int64, error)
}

// DbApp is an interface combining the required DB roles for the application.
// The concrete store implementation must satisfy this interface.
type DbApp interface {
	DbAuth
	DbSession
	DbToken
}
