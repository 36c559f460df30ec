package core

import (
	"errors"
	"fmt"
	"net/mail"
)

// maxEmailLength is the longest address accepted, per RFC 5321 limits.
const maxEmailLength = 254

const defaultPasswordMinLength = 8

// ValidateEmail checks that email is a bare RFC 5322 address of storable
// length. Returns nil if valid, or an error describing why it is not.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email exceeds %d characters", maxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if addr.Address != email {
		return errors.New("email must be a bare address without display name")
	}
	return nil
}

// validatePassword applies the configured acceptance policy to a candidate
// password.
func (a *App) validatePassword(password string) *Error {
	min := a.Config().Passwords.MinLength
	if min < 1 {
		min = defaultPasswordMinLength
	}
	if len(password) < min {
		e := *ErrPasswordComplexity
		e.Message = fmt.Sprintf("Password must be at least %d characters", min)
		return &e
	}
	return nil
}
