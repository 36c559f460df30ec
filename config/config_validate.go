package config

import (
	"fmt"
	"net/url"

	"golang.org/x/crypto/bcrypt"

	"github.com/dundas/lightauth/crypto"
)

// Validate checks a configuration for values that would only fail later, at
// the moment a user tries to authenticate. It is called by Load; callers
// building a Config in code should run it themselves before use.
func Validate(cfg *Config) error {
	if err := validateTokens(&cfg.Tokens); err != nil {
		return fmt.Errorf("tokens config validation failed: %w", err)
	}
	if err := validatePasswords(&cfg.Passwords); err != nil {
		return fmt.Errorf("passwords config validation failed: %w", err)
	}
	if err := validateHasher(&cfg.Hasher); err != nil {
		return fmt.Errorf("hasher config validation failed: %w", err)
	}
	if err := validateExecutor(&cfg.Executor); err != nil {
		return fmt.Errorf("executor config validation failed: %w", err)
	}
	if err := validateOauth2(cfg); err != nil {
		return fmt.Errorf("oauth2 config validation failed: %w", err)
	}
	if err := validateSmtp(&cfg.Smtp); err != nil {
		return fmt.Errorf("smtp config validation failed: %w", err)
	}
	return nil
}

func validateTokens(t *Tokens) error {
	if t.SessionDuration.Duration <= 0 {
		return fmt.Errorf("session duration must be positive, got %s", t.SessionDuration)
	}
	if t.VerificationTokenDuration.Duration <= 0 {
		return fmt.Errorf("verification token duration must be positive, got %s", t.VerificationTokenDuration)
	}
	if t.ResetTokenDuration.Duration <= 0 {
		return fmt.Errorf("reset token duration must be positive, got %s", t.ResetTokenDuration)
	}
	return nil
}

func validatePasswords(p *Passwords) error {
	if p.MinLength < 1 {
		return fmt.Errorf("minimum length must be positive, got %d", p.MinLength)
	}
	return nil
}

func validateHasher(h *Hasher) error {
	if _, err := h.New(); err != nil {
		return err
	}
	// Out of range Argon2 and PBKDF2 costs are clamped by the hashers
	// themselves; only values that would error at hash time are checked here.
	switch h.Algorithm {
	case HasherPbkdf2:
		switch h.Pbkdf2.Digest {
		case "", crypto.Pbkdf2SHA256, crypto.Pbkdf2SHA512:
		default:
			return fmt.Errorf("unknown pbkdf2 digest %q", h.Pbkdf2.Digest)
		}
	case HasherBcrypt:
		if h.Bcrypt.Cost > bcrypt.MaxCost {
			return fmt.Errorf("bcrypt cost %d exceeds maximum %d", h.Bcrypt.Cost, bcrypt.MaxCost)
		}
	}
	return nil
}

func validateExecutor(e *Executor) error {
	if e.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", e.Timeout)
	}
	if e.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", e.MaxRetries)
	}
	if e.BaseDelay.Duration <= 0 {
		return fmt.Errorf("base delay must be positive, got %s", e.BaseDelay)
	}
	if e.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1, got %g", e.Multiplier)
	}
	return nil
}

// validateOauth2 only constrains providers whose credentials resolved from
// the environment. Entries without credentials are presets waiting to be
// activated and stay exempt.
func validateOauth2(cfg *Config) error {
	anyConfigured := false
	for name, provider := range cfg.OAuth2Providers {
		if !provider.Configured() {
			continue
		}
		anyConfigured = true
		if provider.Name != name {
			return fmt.Errorf("provider %q has mismatched name %q", name, provider.Name)
		}
		if err := validateHTTPURL(provider.RedirectURL); err != nil {
			return fmt.Errorf("provider %q redirect URL: %w", name, err)
		}
		if err := validateHTTPURL(provider.AuthURL); err != nil {
			return fmt.Errorf("provider %q auth URL: %w", name, err)
		}
		if err := validateHTTPURL(provider.TokenURL); err != nil {
			return fmt.Errorf("provider %q token URL: %w", name, err)
		}
		if err := validateHTTPURL(provider.UserInfoURL); err != nil {
			return fmt.Errorf("provider %q user info URL: %w", name, err)
		}
	}
	if anyConfigured {
		if len(cfg.Oauth2.StateSecret) < 32 {
			return fmt.Errorf("state secret must be at least 32 characters, got %d", len(cfg.Oauth2.StateSecret))
		}
		if cfg.Oauth2.StateDuration.Duration <= 0 {
			return fmt.Errorf("state duration must be positive, got %s", cfg.Oauth2.StateDuration)
		}
	}
	return nil
}

func validateHTTPURL(value string) error {
	if value == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", value, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: must be absolute http or https", value)
	}
	return nil
}

func validateSmtp(s *Smtp) error {
	if !s.Enabled {
		return nil
	}
	if s.Host == "" {
		return fmt.Errorf("host cannot be empty when smtp is enabled")
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port %d out of range", s.Port)
	}
	if s.FromAddress == "" {
		return fmt.Errorf("from address cannot be empty when smtp is enabled")
	}
	return nil
}
