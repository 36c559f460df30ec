package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 100 * time.Millisecond
	DefaultMultiplier = 2.0
)

// Config tunes the Resilient wrapper.
type Config struct {
	// Timeout bounds each attempt, not the call as a whole.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first.
	MaxRetries int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Multiplier grows the wait between consecutive retries.
	Multiplier float64
}

// DefaultConfig returns the retry policy used when callers have no opinion:
// 10s per attempt, 2 retries, backoff starting at 100ms and doubling.
func DefaultConfig() Config {
	return Config{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Multiplier: DefaultMultiplier,
	}
}

func (c Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be positive, got %s", c.BaseDelay)
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1, got %g", c.Multiplier)
	}
	return nil
}

// Resilient decorates an Executor with per attempt timeouts and classified
// retries. Transient failures are retried with exponential backoff; when a
// rate limited store names its own wait, that wait replaces the backoff
// delay for the next attempt. Config and rejection failures return
// immediately.
type Resilient struct {
	inner  Executor
	cfg    Config
	logger *slog.Logger
}

// NewResilient validates cfg eagerly, so a misconfigured executor fails at
// construction instead of on its first query.
func NewResilient(inner Executor, cfg Config, logger *slog.Logger) (*Resilient, error) {
	if inner == nil {
		return nil, &Error{Kind: KindConfig, Message: "inner executor is nil"}
	}
	if err := cfg.validate(); err != nil {
		return nil, &Error{Kind: KindConfig, Message: "invalid retry config", Err: err}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resilient{inner: inner, cfg: cfg, logger: logger}, nil
}

func (r *Resilient) Execute(ctx context.Context, query string, params ...any) (*Result, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.BaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = r.cfg.Multiplier
	bo.MaxElapsedTime = 0 // attempts are counted, not timed
	bo.Reset()

	for attempt := 0; ; attempt++ {
		res, err := r.execute(ctx, query, params...)
		if err == nil {
			return res, nil
		}

		execErr := Classify(err)
		if ctx.Err() != nil {
			// The caller's context is gone; waiting to retry cannot help.
			return nil, execErr
		}
		if !execErr.Retryable() || attempt == r.cfg.MaxRetries {
			return nil, execErr
		}

		delay := bo.NextBackOff()
		if execErr.Kind == KindRateLimit && execErr.RetryAfter > 0 {
			delay = execErr.RetryAfter
		}
		r.logger.Debug("retrying query",
			"attempt", attempt+1,
			"kind", execErr.Kind.String(),
			"delay", delay)

		select {
		case <-ctx.Done():
			return nil, &Error{Kind: KindTimeout, Message: "canceled while waiting to retry", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

// execute runs one attempt under its own deadline. A deadline hit on the
// attempt context while the caller's context is still live is a retryable
// timeout; the caller's own cancellation is not.
func (r *Resilient) execute(ctx context.Context, query string, params ...any) (*Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	res, err := r.inner.Execute(attemptCtx, query, params...)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return nil, &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("attempt exceeded %s", r.cfg.Timeout),
			Err:     err,
		}
	}
	return res, err
}
