package mock

import (
	"context"

	"github.com/dundas/lightauth/db"
)

// Compile-time check to ensure Db implements the DbApp interface
var _ db.DbApp = (*Db)(nil)

// Db implements db.DbApp for testing purposes.
// Use function fields to allow overriding behavior in specific tests.
// Unset lookup funcs report absence, unset mutation funcs succeed.
type Db struct {
	// --- DbAuth ---
	GetUserByIdFunc            func(ctx context.Context, id string) (*db.User, error)
	GetUserByEmailFunc         func(ctx context.Context, email string) (*db.User, error)
	GetUserByOauth2Func        func(ctx context.Context, provider db.Oauth2Provider, externalID string) (*db.User, error)
	CreateUserWithPasswordFunc func(ctx context.Context, user db.User) (*db.User, error)
	UpsertUserWithOauth2Func   func(ctx context.Context, profile db.Oauth2Profile) (*db.User, error)
	UpdatePasswordFunc         func(ctx context.Context, userID string, newPassword string) error
	VerifyEmailFunc            func(ctx context.Context, userID string) error

	// --- DbSession ---
	CreateSessionFunc          func(ctx context.Context, session db.Session) (*db.Session, error)
	ValidateSessionFunc        func(ctx context.Context, id string) (*db.User, *db.Session, error)
	DeleteSessionFunc          func(ctx context.Context, id string) error
	DeleteAllUserSessionsFunc  func(ctx context.Context, userID string) (int64, error)
	CleanupExpiredSessionsFunc func(ctx context.Context) (int64, error)

	// --- DbToken ---
	CreateVerificationTokenFunc           func(ctx context.Context, token db.EmailVerificationToken) error
	GetVerificationTokenFunc              func(ctx context.Context, token string) (*db.EmailVerificationToken, error)
	DeleteVerificationTokenFunc           func(ctx context.Context, token string) error
	CleanupExpiredVerificationTokensFunc  func(ctx context.Context) (int64, error)
	CreatePasswordResetTokenFunc          func(ctx context.Context, token db.PasswordResetToken) error
	GetPasswordResetTokenFunc             func(ctx context.Context, token string) (*db.PasswordResetToken, error)
	DeletePasswordResetTokenFunc          func(ctx context.Context, token string) error
	CleanupExpiredPasswordResetTokensFunc func(ctx context.Context) (int64, error)
}

// --- Implement db.DbAuth ---

func (m *Db) GetUserById(ctx context.Context, id string) (*db.User, error) {
	if m.GetUserByIdFunc != nil {
		return m.GetUserByIdFunc(ctx, id)
	}
	return nil, nil // Default: Not found
}

func (m *Db) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return nil, nil // Default: Not found
}

func (m *Db) GetUserByOauth2(ctx context.Context, provider db.Oauth2Provider, externalID string) (*db.User, error) {
	if m.GetUserByOauth2Func != nil {
		return m.GetUserByOauth2Func(ctx, provider, externalID)
	}
	return nil, nil // Default: Not found
}

func (m *Db) CreateUserWithPassword(ctx context.Context, user db.User) (*db.User, error) {
	if m.CreateUserWithPasswordFunc != nil {
		return m.CreateUserWithPasswordFunc(ctx, user)
	}
	// Default: Return the user passed in, assuming success
	user.ID = "mock-pw-user-id"
	return &user, nil
}

func (m *Db) UpsertUserWithOauth2(ctx context.Context, profile db.Oauth2Profile) (*db.User, error) {
	if m.UpsertUserWithOauth2Func != nil {
		return m.UpsertUserWithOauth2Func(ctx, profile)
	}
	// Default: Behave like a fresh account created from the profile
	return &db.User{
		ID:       "mock-oauth-user-id",
		Email:    db.NormalizeEmail(profile.Email),
		Name:     profile.Name,
		Avatar:   profile.Avatar,
		Verified: profile.EmailVerified,
	}, nil
}

func (m *Db) UpdatePassword(ctx context.Context, userID string, newPassword string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, newPassword)
	}
	return nil // Default: Success
}

func (m *Db) VerifyEmail(ctx context.Context, userID string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, userID)
	}
	return nil // Default: Success
}

// --- Implement db.DbSession ---

func (m *Db) CreateSession(ctx context.Context, session db.Session) (*db.Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, session)
	}
	return &session, nil // Default: Success
}

func (m *Db) ValidateSession(ctx context.Context, id string) (*db.User, *db.Session, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, id)
	}
	return nil, nil, nil // Default: Not found
}

func (m *Db) DeleteSession(ctx context.Context, id string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, id)
	}
	return nil // Default: Success
}

func (m *Db) DeleteAllUserSessions(ctx context.Context, userID string) (int64, error) {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return 0, nil // Default: Nothing to delete
}

func (m *Db) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	if m.CleanupExpiredSessionsFunc != nil {
		return m.CleanupExpiredSessionsFunc(ctx)
	}
	return 0, nil // Default: Nothing expired
}

// --- Implement db.DbToken ---

func (m *Db) CreateVerificationToken(ctx context.Context, token db.EmailVerificationToken) error {
	if m.CreateVerificationTokenFunc != nil {
		return m.CreateVerificationTokenFunc(ctx, token)
	}
	return nil // Default: Success
}

func (m *Db) GetVerificationToken(ctx context.Context, token string) (*db.EmailVerificationToken, error) {
	if m.GetVerificationTokenFunc != nil {
		return m.GetVerificationTokenFunc(ctx, token)
	}
	return nil, nil // Default: Not found
}

func (m *Db) DeleteVerificationToken(ctx context.Context, token string) error {
	if m.DeleteVerificationTokenFunc != nil {
		return m.DeleteVerificationTokenFunc(ctx, token)
	}
	return nil // Default: Success
}

func (m *Db) CleanupExpiredVerificationTokens(ctx context.Context) (int64, error) {
	if m.CleanupExpiredVerificationTokensFunc != nil {
		return m.CleanupExpiredVerificationTokensFunc(ctx)
	}
	return 0, nil // Default: Nothing expired
}

func (m *Db) CreatePasswordResetToken(ctx context.Context, token db.PasswordResetToken) error {
	if m.CreatePasswordResetTokenFunc != nil {
		return m.CreatePasswordResetTokenFunc(ctx, token)
	}
	return nil // Default: Success
}

func (m *Db) GetPasswordResetToken(ctx context.Context, token string) (*db.PasswordResetToken, error) {
	if m.GetPasswordResetTokenFunc != nil {
		return m.GetPasswordResetTokenFunc(ctx, token)
	}
	return nil, nil // Default: Not found
}

func (m *Db) DeletePasswordResetToken(ctx context.Context, token string) error {
	if m.DeletePasswordResetTokenFunc != nil {
		return m.DeletePasswordResetTokenFunc(ctx, token)
	}
	return nil // Default: Success
}

func (m *Db) CleanupExpiredPasswordResetTokens(ctx context.Context) (int64, error) {
	if m.CleanupExpiredPasswordResetTokensFunc != nil {
		return m.CleanupExpiredPasswordResetTokensFunc(ctx)
	}
	return 0, nil // Default: Nothing expired
}
