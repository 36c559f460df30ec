// Package config defines the TOML configuration surface and a concurrency
// safe provider for live values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db/executor"
)

const (
	EnvGoogleClientID     = "OAUTH2_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "OAUTH2_GOOGLE_CLIENT_SECRET"
	EnvGithubClientID     = "OAUTH2_GITHUB_CLIENT_ID"
	EnvGithubClientSecret = "OAUTH2_GITHUB_CLIENT_SECRET"
)

const (
	OAuth2ProviderGoogle = "google"
	OAuth2ProviderGitHub = "github"
)

// Hasher algorithm names accepted in the Hasher section.
const (
	HasherArgon2id = "argon2id"
	HasherPbkdf2   = "pbkdf2"
	HasherBcrypt   = "bcrypt"
)

// Duration wraps time.Duration so TOML values read "45m" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LogLevel wraps slog.Level so TOML values read "info" style strings.
type LogLevel struct {
	slog.Level
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	return l.Level.UnmarshalText(text)
}

func (l LogLevel) MarshalText() ([]byte, error) {
	return l.Level.MarshalText()
}

// Env names an environment variable and carries its resolved value. Secrets
// stay out of the TOML file; only the variable name is written there.
type Env struct {
	Name  string
	Value string `toml:"-"`
}

// Config is the whole configuration tree.
type Config struct {
	// Source records where the configuration was loaded from. Empty for
	// defaults built in code.
	Source string `toml:"-"`

	Tokens          Tokens
	Passwords       Passwords
	Oauth2          Oauth2
	Hasher          Hasher
	Executor        Executor
	OAuth2Providers map[string]OAuth2Provider
	Smtp            Smtp
	Log             Log
}

// Tokens sets the lifetime of sessions and one time credentials.
type Tokens struct {
	SessionDuration           Duration
	VerificationTokenDuration Duration
	ResetTokenDuration        Duration
}

// Passwords sets the acceptance policy for local passwords. Hashing cost
// lives in Hasher; this only gates what users may pick.
type Passwords struct {
	MinLength int
}

// Oauth2 sets the parameters of the authorization code flow itself;
// per provider settings live in OAuth2Providers.
type Oauth2 struct {
	// StateSecret signs the state artifact handed to providers. At least
	// 32 bytes.
	StateSecret string

	// StateDuration bounds how long a begun flow may take to come back.
	StateDuration Duration
}

// Hasher selects the password hashing algorithm and its cost settings.
// Stored values are self describing, so changing this only affects newly
// hashed passwords.
type Hasher struct {
	Algorithm string
	Argon2    Argon2Params
	Pbkdf2    Pbkdf2Params
	Bcrypt    BcryptParams
}

type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

type Pbkdf2Params struct {
	Iterations int
	KeyLen     int
	Digest     string
}

type BcryptParams struct {
	Cost int
}

// New builds the configured hasher. Zero cost values fall back to the
// algorithm defaults.
func (h Hasher) New() (crypto.Hasher, error) {
	switch h.Algorithm {
	case HasherArgon2id, "":
		if h.Argon2 == (Argon2Params{}) {
			return crypto.DefaultArgon2(), nil
		}
		return crypto.Argon2Hasher{
			Memory:      h.Argon2.Memory,
			Time:        h.Argon2.Time,
			Parallelism: h.Argon2.Parallelism,
			KeyLen:      h.Argon2.KeyLen,
		}, nil
	case HasherPbkdf2:
		if h.Pbkdf2 == (Pbkdf2Params{}) {
			return crypto.DefaultPbkdf2(), nil
		}
		return crypto.Pbkdf2Hasher{
			Iterations: h.Pbkdf2.Iterations,
			KeyLen:     h.Pbkdf2.KeyLen,
			Digest:     h.Pbkdf2.Digest,
		}, nil
	case HasherBcrypt:
		return crypto.BcryptHasher{Cost: h.Bcrypt.Cost}, nil
	}
	return nil, fmt.Errorf("unknown hasher algorithm %q", h.Algorithm)
}

// Executor sets the retry policy queries run under.
type Executor struct {
	Timeout    Duration
	MaxRetries int
	BaseDelay  Duration
	Multiplier float64
}

// Policy converts the section into the executor's config type.
func (e Executor) Policy() executor.Config {
	return executor.Config{
		Timeout:    e.Timeout.Duration,
		MaxRetries: e.MaxRetries,
		BaseDelay:  e.BaseDelay.Duration,
		Multiplier: e.Multiplier,
	}
}

// OAuth2Provider holds one provider's endpoints and credentials.
type OAuth2Provider struct {
	Name         string
	DisplayName  string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	PKCE         bool
	ClientID     Env
	ClientSecret Env
}

// FillEnvVars resolves the client credentials from the environment.
func (c *OAuth2Provider) FillEnvVars() {
	c.ClientID.Value = os.Getenv(c.ClientID.Name)
	c.ClientSecret.Value = os.Getenv(c.ClientSecret.Name)
}

// Configured reports whether both client credentials are present.
func (c *OAuth2Provider) Configured() bool {
	return c.ClientID.Value != "" && c.ClientSecret.Value != ""
}

// Smtp configures the outgoing mail server.
type Smtp struct {
	Enabled     bool
	Host        string
	Port        int
	FromName    string
	FromAddress string
	LocalName   string
	AuthMethod  string
	UseTLS      bool
	UseStartTLS bool
	Username    string
	Password    string
}

// Log configures the application logger.
type Log struct {
	Level  LogLevel
	Format string // "json" or "text"
}

func (l Log) JSON() bool {
	return strings.EqualFold(l.Format, "json")
}
