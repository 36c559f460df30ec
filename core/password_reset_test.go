package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/mock"
)

func TestRequestPasswordResetDeliversToken(t *testing.T) {
	t.Parallel()

	user := &db.User{ID: "user-1", Email: "user@example.com", Password: hashPassword(t, "old-password")}
	var created db.PasswordResetToken
	var deliveredEmail, deliveredToken string
	mockDb := &mock.Db{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*db.User, error) {
			return user, nil
		},
		CreatePasswordResetTokenFunc: func(ctx context.Context, token db.PasswordResetToken) error {
			created = token
			return nil
		},
	}
	app := newTestApp(t, mockDb)

	err := app.RequestPasswordReset(context.Background(), "User@Example.com", func(ctx context.Context, email, token string) error {
		deliveredEmail = email
		deliveredToken = token
		return nil
	})
	if err != nil {
		t.Fatalf("RequestPasswordReset() failed: %v", err)
	}

	if created.Token == "" || created.UserID != "user-1" {
		t.Errorf("token row = %+v, want stored for account", created)
	}
	if !created.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Errorf("token ExpiresAt = %v, want configured lifetime", created.ExpiresAt)
	}
	if deliveredEmail != "user@example.com" || deliveredToken != created.Token {
		t.Errorf("delivered (%q, %q), want the stored token for the account", deliveredEmail, deliveredToken)
	}
}

func TestRequestPasswordResetMasksAbsence(t *testing.T) {
	t.Parallel()

	// Absent accounts and oauth2 only accounts get the same nil outcome,
	// and the delivery callback never runs for them.
	passwordless := &db.User{ID: "user-2", Email: "oauth-only@example.com"}
	mockDb := &mock.Db{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*db.User, error) {
			if email == passwordless.Email {
				return passwordless, nil
			}
			return nil, nil
		},
		CreatePasswordResetTokenFunc: func(ctx context.Context, token db.PasswordResetToken) error {
			t.Error("no token may be stored")
			return nil
		},
	}
	app := newTestApp(t, mockDb)

	for _, email := range []string{"ghost@example.com", "oauth-only@example.com"} {
		err := app.RequestPasswordReset(context.Background(), email, func(ctx context.Context, email, token string) error {
			t.Errorf("delivery callback ran for %q", email)
			return nil
		})
		if err != nil {
			t.Errorf("RequestPasswordReset(%q) error = %v, want nil", email, err)
		}
	}
}

func TestRequestPasswordResetWithoutCallback(t *testing.T) {
	t.Parallel()

	user := &db.User{ID: "user-1", Email: "user@example.com", Password: hashPassword(t, "old-password")}
	var stored bool
	mockDb := &mock.Db{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*db.User, error) {
			return user, nil
		},
		CreatePasswordResetTokenFunc: func(ctx context.Context, token db.PasswordResetToken) error {
			stored = true
			return nil
		},
	}
	app := newTestApp(t, mockDb)

	if err := app.RequestPasswordReset(context.Background(), "user@example.com", nil); err != nil {
		t.Fatalf("RequestPasswordReset() without callback failed: %v", err)
	}
	if !stored {
		t.Error("token was not stored")
	}
}

func TestRequestPasswordResetDeliveryFailure(t *testing.T) {
	t.Parallel()

	user := &db.User{ID: "user-1", Email: "user@example.com", Password: hashPassword(t, "old-password")}
	mockDb := &mock.Db{
		GetUserByEmailFunc: func(ctx context.Context, email string) (*db.User, error) {
			return user, nil
		},
	}
	app := newTestApp(t, mockDb)

	err := app.RequestPasswordReset(context.Background(), "user@example.com", func(ctx context.Context, email, token string) error {
		return errors.New("smtp down")
	})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("RequestPasswordReset() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestVerifyResetToken(t *testing.T) {
	t.Parallel()

	live := &db.PasswordResetToken{Token: "tok-live", UserID: "user-1", ExpiresAt: testNow.Add(time.Hour)}
	stale := &db.PasswordResetToken{Token: "tok-stale", UserID: "user-1", ExpiresAt: testNow.Add(-time.Minute)}
	mockDb := &mock.Db{
		GetPasswordResetTokenFunc: func(ctx context.Context, token string) (*db.PasswordResetToken, error) {
			switch token {
			case live.Token:
				return live, nil
			case stale.Token:
				return stale, nil
			}
			return nil, nil
		},
		DeletePasswordResetTokenFunc: func(ctx context.Context, token string) error {
			t.Error("VerifyResetToken must not consume tokens")
			return nil
		},
	}
	app := newTestApp(t, mockDb)

	row, err := app.VerifyResetToken(context.Background(), "tok-live")
	if err != nil {
		t.Fatalf("VerifyResetToken() failed: %v", err)
	}
	if row.UserID != "user-1" {
		t.Errorf("row = %+v, want the account's token", row)
	}

	if _, err := app.VerifyResetToken(context.Background(), "tok-stale"); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("VerifyResetToken(expired) error = %v, want ErrTokenExpired", err)
	}
	if _, err := app.VerifyResetToken(context.Background(), "unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyResetToken(unknown) error = %v, want ErrInvalidToken", err)
	}
	if _, err := app.VerifyResetToken(context.Background(), ""); !errors.Is(err, ErrMissingFields) {
		t.Errorf("VerifyResetToken(\"\") error = %v, want ErrMissingFields", err)
	}
}

func TestResetPasswordSuccessOrder(t *testing.T) {
	t.Parallel()

	row := &db.PasswordResetToken{Token: "tok-1", UserID: "user-1", ExpiresAt: testNow.Add(time.Hour)}
	var calls []string
	var newHash string
	mockDb := &mock.Db{
		GetPasswordResetTokenFunc: func(ctx context.Context, token string) (*db.PasswordResetToken, error) {
			calls = append(calls, "get_token")
			return row, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, userID string, newPassword string) error {
			calls = append(calls, "update_password")
			newHash = newPassword
			return nil
		},
		DeletePasswordResetTokenFunc: func(ctx context.Context, token string) error {
			calls = append(calls, "delete_token")
			return nil
		},
		DeleteAllUserSessionsFunc: func(ctx context.Context, userID string) (int64, error) {
			calls = append(calls, "delete_sessions")
			if userID != "user-1" {
				t.Errorf("sessions deleted for %q, want user-1", userID)
			}
			return 3, nil
		},
	}
	app := newTestApp(t, mockDb)

	if err := app.ResetPassword(context.Background(), "tok-1", "new-password"); err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}

	want := []string{"get_token", "update_password", "delete_token", "delete_sessions"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
	if !crypto.VerifyStored(newHash, "new-password") {
		t.Error("stored hash does not verify the new password")
	}
}

func TestResetPasswordPolicyBeforeTokenLookup(t *testing.T) {
	t.Parallel()

	mockDb := &mock.Db{
		GetPasswordResetTokenFunc: func(ctx context.Context, token string) (*db.PasswordResetToken, error) {
			t.Error("token lookup ran before password policy")
			return nil, nil
		},
	}
	app := newTestApp(t, mockDb)

	if err := app.ResetPassword(context.Background(), "tok-1", "short"); !errors.Is(err, ErrPasswordComplexity) {
		t.Errorf("ResetPassword() error = %v, want ErrPasswordComplexity", err)
	}
}

func TestResetPasswordTokenOutcomes(t *testing.T) {
	t.Parallel()

	stale := &db.PasswordResetToken{Token: "tok-stale", UserID: "user-1", ExpiresAt: testNow.Add(-time.Minute)}
	var staleDeleted bool
	mockDb := &mock.Db{
		GetPasswordResetTokenFunc: func(ctx context.Context, token string) (*db.PasswordResetToken, error) {
			if token == stale.Token {
				return stale, nil
			}
			return nil, nil
		},
		DeletePasswordResetTokenFunc: func(ctx context.Context, token string) error {
			staleDeleted = token == stale.Token
			return nil
		},
		UpdatePasswordFunc: func(ctx context.Context, userID string, newPassword string) error {
			t.Error("password must not change without a live token")
			return nil
		},
	}
	app := newTestApp(t, mockDb)

	if err := app.ResetPassword(context.Background(), "unknown", "new-password"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ResetPassword(unknown) error = %v, want ErrInvalidToken", err)
	}
	if err := app.ResetPassword(context.Background(), "tok-stale", "new-password"); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ResetPassword(expired) error = %v, want ErrTokenExpired", err)
	}
	if !staleDeleted {
		t.Error("expired token was not deleted")
	}
	if err := app.ResetPassword(context.Background(), "", "new-password"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("ResetPassword(\"\") error = %v, want ErrMissingFields", err)
	}
}

func TestResetPasswordStopsOnUpdateFailure(t *testing.T) {
	t.Parallel()

	row := &db.PasswordResetToken{Token: "tok-1", UserID: "user-1", ExpiresAt: testNow.Add(time.Hour)}
	mockDb := &mock.Db{
		GetPasswordResetTokenFunc: func(ctx context.Context, token string) (*db.PasswordResetToken, error) {
			return row, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, userID string, newPassword string) error {
			return errors.New("disk full")
		},
		DeletePasswordResetTokenFunc: func(ctx context.Context, token string) error {
			t.Error("token must survive a failed update")
			return nil
		},
		DeleteAllUserSessionsFunc: func(ctx context.Context, userID string) (int64, error) {
			t.Error("sessions must survive a failed update")
			return 0, nil
		},
	}
	app := newTestApp(t, mockDb)

	if err := app.ResetPassword(context.Background(), "tok-1", "new-password"); !errors.Is(err, ErrAuthDatabase) {
		t.Errorf("ResetPassword() error = %v, want ErrAuthDatabase", err)
	}
}
