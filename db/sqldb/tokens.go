package sqldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
)

const tokenColumns = `token, user_id, email, expires_at, created`

// CreateVerificationToken stores a fresh email verification token after
// removing earlier ones for the same user, so only the newest mailed link
// works.
func (d *Db) CreateVerificationToken(ctx context.Context, token db.EmailVerificationToken) error {
	if err := validToken(token.Token, token.UserID); err != nil {
		return err
	}
	if _, err := d.exec.Execute(ctx,
		`DELETE FROM email_verification_tokens WHERE user_id = ?`, token.UserID); err != nil {
		return fmt.Errorf("failed to void prior verification tokens: %w", err)
	}

	created := token.Created
	if created.IsZero() {
		created = d.now()
	}
	_, err := d.exec.Execute(ctx,
		`INSERT INTO email_verification_tokens (token, user_id, email, expires_at, created)
		VALUES (?, ?, ?, ?, ?)`,
		token.Token, token.UserID, db.NormalizeEmail(token.Email),
		db.TimeFormat(token.ExpiresAt), db.TimeFormat(created))
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

// GetVerificationToken retrieves a token row regardless of expiry; callers
// distinguish unknown from expired themselves.
// Note: A nil token with nil error indicates no matching record was found
func (d *Db) GetVerificationToken(ctx context.Context, token string) (*db.EmailVerificationToken, error) {
	res, err := d.exec.Execute(ctx,
		`SELECT `+tokenColumns+` FROM email_verification_tokens WHERE token = ? LIMIT 1`, token)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	row := res.Rows[0]

	expiresAt, err := row.Time("expires_at")
	if err != nil {
		return nil, fmt.Errorf("error parsing expires_at time: %w", err)
	}
	created, err := row.Time("created")
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}
	return &db.EmailVerificationToken{
		Token:     row.Text("token"),
		UserID:    row.Text("user_id"),
		Email:     row.Text("email"),
		ExpiresAt: expiresAt,
		Created:   created,
	}, nil
}

// DeleteVerificationToken consumes a token. Unknown tokens are a no-op.
func (d *Db) DeleteVerificationToken(ctx context.Context, token string) error {
	_, err := d.exec.Execute(ctx,
		`DELETE FROM email_verification_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete verification token: %w", err)
	}
	return nil
}

// CleanupExpiredVerificationTokens deletes tokens past their expiry.
func (d *Db) CleanupExpiredVerificationTokens(ctx context.Context) (int64, error) {
	res, err := d.exec.Execute(ctx,
		`DELETE FROM email_verification_tokens WHERE expires_at <= ?`, db.TimeFormat(d.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up verification tokens: %w", err)
	}
	return res.RowCount, nil
}

// CreatePasswordResetToken stores a fresh reset token after removing earlier
// ones for the same user.
func (d *Db) CreatePasswordResetToken(ctx context.Context, token db.PasswordResetToken) error {
	if err := validToken(token.Token, token.UserID); err != nil {
		return err
	}
	if _, err := d.exec.Execute(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = ?`, token.UserID); err != nil {
		return fmt.Errorf("failed to void prior reset tokens: %w", err)
	}

	created := token.Created
	if created.IsZero() {
		created = d.now()
	}
	_, err := d.exec.Execute(ctx,
		`INSERT INTO password_reset_tokens (token, user_id, email, expires_at, created)
		VALUES (?, ?, ?, ?, ?)`,
		token.Token, token.UserID, db.NormalizeEmail(token.Email),
		db.TimeFormat(token.ExpiresAt), db.TimeFormat(created))
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves a token row regardless of expiry. The
// reset preflight check uses this without consuming anything.
// Note: A nil token with nil error indicates no matching record was found
func (d *Db) GetPasswordResetToken(ctx context.Context, token string) (*db.PasswordResetToken, error) {
	res, err := d.exec.Execute(ctx,
		`SELECT `+tokenColumns+` FROM password_reset_tokens WHERE token = ? LIMIT 1`, token)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	row := res.Rows[0]

	expiresAt, err := row.Time("expires_at")
	if err != nil {
		return nil, fmt.Errorf("error parsing expires_at time: %w", err)
	}
	created, err := row.Time("created")
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}
	return &db.PasswordResetToken{
		Token:     row.Text("token"),
		UserID:    row.Text("user_id"),
		Email:     row.Text("email"),
		ExpiresAt: expiresAt,
		Created:   created,
	}, nil
}

// DeletePasswordResetToken consumes a token. Unknown tokens are a no-op.
func (d *Db) DeletePasswordResetToken(ctx context.Context, token string) error {
	_, err := d.exec.Execute(ctx,
		`DELETE FROM password_reset_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	return nil
}

// CleanupExpiredPasswordResetTokens deletes tokens past their expiry.
func (d *Db) CleanupExpiredPasswordResetTokens(ctx context.Context) (int64, error) {
	res, err := d.exec.Execute(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at <= ?`, db.TimeFormat(d.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up reset tokens: %w", err)
	}
	return res.RowCount, nil
}

func validToken(token, userID string) error {
	if token == "" {
		return errors.New("sqldb: token is empty")
	}
	if userID == "" {
		return errors.New("sqldb: token user id is empty")
	}
	return nil
}
