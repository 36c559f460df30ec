package db

import (
	"strings"
	"time"
)

// User represents a user from the database.
// Timestamps (Created and Updated) use RFC3339 format in UTC timezone.
// Example: "2024-03-07T15:04:05Z"
type User struct {
	ID    string
	Email string
	Name  string
	// Non empty password means password authentication is active.
	// Password can be empty for passwordless accounts created through
	// oauth2; such accounts store NULL, never an empty digest.
	Password string
	Avatar   string
	Created  time.Time
	Updated  time.Time
	// Verified records whether the account's email was ever confirmed,
	// either through the verification flow or by a provider claim. Once
	// true it stays true.
	Verified bool
	// Provider identities linked to this account. Empty when never linked.
	GithubID string
	GoogleID string
}

// HasPassword reports whether password authentication is active.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// Session is an opaque server side login. The identifier is the credential;
// there is nothing to decode client side.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	IP        string
	UserAgent string
	Created   time.Time
}

// EmailVerificationToken is a single-use token mailed out to confirm an
// address. Email records the address being confirmed at issue time, so a
// token cannot confirm an address the account moved away from.
type EmailVerificationToken struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
	Created   time.Time
}

// PasswordResetToken is a single-use token mailed out to authorize a
// password change.
type PasswordResetToken struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
	Created   time.Time
}

// Oauth2Profile is the normalized identity a provider callback yields.
// ExternalID is the provider's stable subject identifier, not the email.
type Oauth2Profile struct {
	Provider      Oauth2Provider
	ExternalID    string
	Email         string
	EmailVerified bool
	Name          string
	Avatar        string
}

// NormalizeEmail canonicalizes an email address: surrounding whitespace
// trimmed, then lowercased. Every store read and write applies it, so case
// variants of one address cannot become distinct accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TimeFormat renders a timestamp for storage: RFC3339 in UTC.
func TimeFormat(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// TimeParse reads a stored timestamp back into a UTC time. The empty string
// parses to the zero time, mirroring how optional text columns come back.
func TimeParse(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
