package core

import (
	"errors"
	"fmt"

	"github.com/dundas/lightauth/db/executor"
)

// Kind classifies workflow failures so callers can map them to a status
// scheme without matching individual codes.
type Kind int

const (
	// KindValidation marks inputs rejected before any state was touched.
	KindValidation Kind = iota + 1

	// KindConflict marks requests that collide with existing state, such
	// as a taken email.
	KindConflict

	// KindUnauthorized marks failed credential or token checks.
	KindUnauthorized

	// KindNotConfigured marks operations that need a collaborator this
	// deployment does not carry.
	KindNotConfigured

	// KindTransport marks upstream or store unavailability; the request
	// may succeed on retry.
	KindTransport

	// KindInternal marks defects and store failures that are not the
	// caller's fault.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotConfigured:
		return "not_configured"
	case KindTransport:
		return "transport"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Stable outcome codes. These are part of the public surface; clients match
// on them, so they never change meaning.
const (
	CodeErrorInvalidInput          = "err_invalid_input"
	CodeErrorMissingFields         = "err_missing_fields"
	CodeErrorPasswordComplexity    = "err_password_complexity"
	CodeErrorEmailConflict         = "err_email_conflict"
	CodeErrorInvalidCredentials    = "err_invalid_credentials"
	CodeErrorAlreadyVerified       = "err_already_verified"
	CodeErrorInvalidToken          = "err_invalid_token"
	CodeErrorTokenExpired          = "err_token_expired"
	CodeErrorInvalidOauth2Provider = "err_invalid_oauth2_provider"
	CodeErrorOauth2ExchangeFailed  = "err_oauth2_token_exchange_failed"
	CodeErrorOauth2UserInfoFailed  = "err_oauth2_user_info_failed"
	CodeErrorOauth2StateMismatch   = "err_oauth2_state_mismatch"
	CodeErrorOauth2StateExpired    = "err_oauth2_state_expired"
	CodeErrorOauth2UnverifiedEmail = "err_oauth2_unverified_email"
	CodeErrorServiceUnavailable    = "err_service_unavailable"
	CodeErrorAuthDatabaseError     = "err_auth_database_error"
	CodeErrorInternal              = "err_internal"
)

// Error is the failure type every workflow returns. Two Errors are considered
// the same outcome when their codes match, so errors.Is works against the
// package sentinels even for wrapped copies.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// withCause returns a copy of the sentinel carrying the underlying error.
// The sentinels themselves stay immutable.
func (e *Error) withCause(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// Precomputed workflow outcomes. Compare with errors.Is.
var (
	ErrInvalidInput          = &Error{Kind: KindValidation, Code: CodeErrorInvalidInput, Message: "Invalid input"}
	ErrMissingFields         = &Error{Kind: KindValidation, Code: CodeErrorMissingFields, Message: "Missing required fields"}
	ErrPasswordComplexity    = &Error{Kind: KindValidation, Code: CodeErrorPasswordComplexity, Message: "Password does not meet the complexity requirements"}
	ErrEmailConflict         = &Error{Kind: KindConflict, Code: CodeErrorEmailConflict, Message: "Email address is already registered"}
	ErrAlreadyVerified       = &Error{Kind: KindConflict, Code: CodeErrorAlreadyVerified, Message: "Email already verified - no further action needed"}
	ErrInvalidCredentials    = &Error{Kind: KindUnauthorized, Code: CodeErrorInvalidCredentials, Message: "Invalid credentials"}
	ErrInvalidToken          = &Error{Kind: KindUnauthorized, Code: CodeErrorInvalidToken, Message: "Invalid or unknown token"}
	ErrTokenExpired          = &Error{Kind: KindUnauthorized, Code: CodeErrorTokenExpired, Message: "Token has expired"}
	ErrInvalidOauth2Provider = &Error{Kind: KindNotConfigured, Code: CodeErrorInvalidOauth2Provider, Message: "Invalid OAuth2 provider specified"}
	ErrOauth2ExchangeFailed  = &Error{Kind: KindUnauthorized, Code: CodeErrorOauth2ExchangeFailed, Message: "Failed to exchange OAuth2 token"}
	ErrOauth2UserInfoFailed  = &Error{Kind: KindTransport, Code: CodeErrorOauth2UserInfoFailed, Message: "Failed to get user info from OAuth2 provider"}
	ErrOauth2StateMismatch   = &Error{Kind: KindUnauthorized, Code: CodeErrorOauth2StateMismatch, Message: "OAuth2 state is missing, unknown or already used"}
	ErrOauth2StateExpired    = &Error{Kind: KindUnauthorized, Code: CodeErrorOauth2StateExpired, Message: "OAuth2 state has expired"}
	ErrOauth2UnverifiedEmail = &Error{Kind: KindUnauthorized, Code: CodeErrorOauth2UnverifiedEmail, Message: "OAuth2 provider account has no verified email"}
	ErrServiceUnavailable    = &Error{Kind: KindTransport, Code: CodeErrorServiceUnavailable, Message: "Service is temporarily unavailable"}
	ErrAuthDatabase          = &Error{Kind: KindInternal, Code: CodeErrorAuthDatabaseError, Message: "Database error during authentication"}
	ErrInternal              = &Error{Kind: KindInternal, Code: CodeErrorInternal, Message: "Internal error"}
)

// storeError maps a store failure onto the workflow taxonomy. Retryable
// executor failures surface as transport, everything else as a database
// error the caller cannot fix.
func storeError(err error) *Error {
	var xe *executor.Error
	if errors.As(err, &xe) {
		switch xe.Kind {
		case executor.KindNetwork, executor.KindTimeout, executor.KindRateLimit:
			return ErrServiceUnavailable.withCause(err)
		}
	}
	return ErrAuthDatabase.withCause(err)
}
