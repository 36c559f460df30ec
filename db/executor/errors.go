package executor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies execution failures into the categories error handling and
// retry policy decide on.
type Kind int

const (
	// KindConfig marks failures rooted in construction or inputs, visible
	// without talking to the store. Never retried.
	KindConfig Kind = iota + 1

	// KindNetwork marks transport failures where the statement may never
	// have reached the store.
	KindNetwork

	// KindTimeout marks attempts that exceeded their time budget.
	KindTimeout

	// KindRateLimit marks store side throttling. RetryAfter carries the
	// wait the store asked for, when it named one.
	KindRateLimit

	// KindQueryRejected marks statements the store understood and refused,
	// such as constraint violations or malformed SQL. Never retried.
	KindQueryRejected
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	case KindQueryRejected:
		return "query_rejected"
	}
	return "unknown"
}

// Error is the classified failure every Executor returns. Raw driver errors
// never escape the package; they travel in Err for logs and errors.Is.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // only meaningful for KindRateLimit
	Err        error         // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("executor: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("executor: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt can change the outcome.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRateLimit:
		return true
	}
	return false
}

// NewError builds a classified error around an optional cause.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Classify normalizes err into an *Error. Already classified errors pass
// through, deadline errors become timeouts, and anything else is treated as
// a transport failure.
func Classify(err error) *Error {
	var execErr *Error
	if errors.As(err, &execErr) {
		return execErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "deadline exceeded", Err: err}
	}
	return &Error{Kind: KindNetwork, Message: "query failed", Err: err}
}
