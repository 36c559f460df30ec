package config

import (
	"log/slog"
	"time"

	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db/executor"
)

// NewDefaultConfig creates a new Config with sensible defaults.
// All secret values are randomly generated.
func NewDefaultConfig() *Config {
	return &Config{
		Tokens: Tokens{
			SessionDuration:           Duration{Duration: 720 * time.Hour},
			VerificationTokenDuration: Duration{Duration: 24 * time.Hour},
			ResetTokenDuration:        Duration{Duration: 1 * time.Hour},
		},
		Passwords: Passwords{
			MinLength: 8,
		},
		Oauth2: Oauth2{
			StateSecret:   crypto.RandomString(32, crypto.AlphanumericAlphabet),
			StateDuration: Duration{Duration: 10 * time.Minute},
		},
		Hasher: Hasher{
			Algorithm: HasherArgon2id,
		},
		Executor: Executor{
			Timeout:    Duration{Duration: executor.DefaultTimeout},
			MaxRetries: executor.DefaultMaxRetries,
			BaseDelay:  Duration{Duration: executor.DefaultBaseDelay},
			Multiplier: executor.DefaultMultiplier,
		},
		OAuth2Providers: map[string]OAuth2Provider{
			OAuth2ProviderGoogle: {
				Name:         OAuth2ProviderGoogle,
				DisplayName:  "Google",
				RedirectURL:  "",
				AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:     "https://oauth2.googleapis.com/token",
				UserInfoURL:  "https://www.googleapis.com/oauth2/v3/userinfo",
				Scopes:       []string{"https://www.googleapis.com/auth/userinfo.profile", "https://www.googleapis.com/auth/userinfo.email"},
				PKCE:         true,
				ClientID:     Env{Name: EnvGoogleClientID},
				ClientSecret: Env{Name: EnvGoogleClientSecret},
			},
			OAuth2ProviderGitHub: {
				Name:         OAuth2ProviderGitHub,
				DisplayName:  "GitHub",
				RedirectURL:  "",
				AuthURL:      "https://github.com/login/oauth/authorize",
				TokenURL:     "https://github.com/login/oauth/access_token",
				UserInfoURL:  "https://api.github.com/user",
				Scopes:       []string{"read:user", "user:email"},
				PKCE:         true,
				ClientID:     Env{Name: EnvGithubClientID},
				ClientSecret: Env{Name: EnvGithubClientSecret},
			},
		},
		Smtp: Smtp{
			Enabled:     false,
			Host:        "smtp.gmail.com",
			Port:        587,
			FromName:    "My App",
			FromAddress: "",
			LocalName:   "",
			AuthMethod:  "plain",
			UseTLS:      false,
			UseStartTLS: true,
			Username:    "",
			Password:    "",
		},
		Log: Log{
			Level:  LogLevel{Level: slog.LevelInfo},
			Format: "json",
		},
	}
}
