// Package oauth2 implements the provider side of social login: authorization
// URL issuance with CSRF state and PKCE, callback validation, code exchange
// and profile normalization. It produces a db.Oauth2Profile; linking the
// profile to an account and opening a session belong to the caller.
package oauth2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/dundas/lightauth/config"
	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
)

// tokenExchangeTimeout bounds the token exchange and the user info fetch.
// It prevents hanging if the provider is unresponsive.
const tokenExchangeTimeout = 10 * time.Second

var (
	// ErrProviderNotConfigured reports a provider name without usable
	// configuration. Raised synchronously, before any network traffic.
	ErrProviderNotConfigured = errors.New("oauth2 provider not configured")

	// ErrStateMismatch reports a callback whose state failed validation:
	// it differs from the stored one, carries a bad signature, names the
	// wrong provider, or was already consumed. Terminal, never retried.
	ErrStateMismatch = errors.New("oauth2 state mismatch")

	// ErrStateExpired reports a callback that arrived after the state's
	// freshness window closed.
	ErrStateExpired = errors.New("oauth2 state expired")

	// ErrExchangeFailed reports a failed authorization code exchange.
	ErrExchangeFailed = errors.New("oauth2 code exchange failed")

	// ErrUserInfoFailed reports a failed or undecodable user info fetch.
	ErrUserInfoFailed = errors.New("oauth2 user info fetch failed")

	// ErrNoVerifiedEmail reports a provider account without any verified
	// email address. The flow fails rather than create an account that
	// could never receive mail.
	ErrNoVerifiedEmail = errors.New("oauth2 provider supplied no verified email")
)

// AuthRequest carries everything the caller needs to send a user to a
// provider and later finish the flow: the authorization URL plus the
// artifacts to hold on to until the callback, typically in a short lived
// cookie. The code verifier must never reach the provider.
type AuthRequest struct {
	Provider            string    `json:"provider"`
	DisplayName         string    `json:"displayName"`
	AuthURL             string    `json:"authURL"`
	RedirectURL         string    `json:"redirectURL"`
	State               string    `json:"state"`
	ExpiresAt           time.Time `json:"expiresAt"`
	CodeVerifier        string    `json:"codeVerifier,omitempty"`
	CodeChallenge       string    `json:"codeChallenge,omitempty"`
	CodeChallengeMethod string    `json:"codeChallengeMethod,omitempty"`
}

// CallbackRequest carries the provider callback parameters together with the
// artifacts the caller held since Begin. StoredState comes from the caller's
// own storage, never from the callback.
type CallbackRequest struct {
	Provider      string `json:"provider"`
	Code          string `json:"code"`
	ReturnedState string `json:"state"`
	CodeVerifier  string `json:"code_verifier"`
	StoredState   string `json:"-"`
}

// Flow runs the authorization code dance against the providers named in the
// configuration. A state is valid for one Complete call on the Flow that
// issued it.
type Flow struct {
	config *config.Provider
	states *stateCache
	logger *slog.Logger
}

// NewFlow creates a Flow reading provider settings live from cfg, so a
// configuration reload is picked up without rebuilding the Flow.
func NewFlow(cfg *config.Provider, logger *slog.Logger) (*Flow, error) {
	if cfg == nil {
		return nil, errors.New("oauth2: config provider cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	states, err := newStateCache()
	if err != nil {
		return nil, fmt.Errorf("oauth2: creating state cache: %w", err)
	}
	return &Flow{config: cfg, states: states, logger: logger}, nil
}

// Close releases the state cache. In flight flows fail with a state
// mismatch afterwards.
func (f *Flow) Close() {
	f.states.Close()
}

// provider resolves a provider name to its enum value and configuration.
// Names outside the enum and entries without credentials both come back as
// not configured.
func (f *Flow) provider(name string) (db.Oauth2Provider, config.OAuth2Provider, error) {
	enum, err := db.ParseOauth2Provider(name)
	if err != nil {
		return 0, config.OAuth2Provider{}, ErrProviderNotConfigured
	}
	cfg := f.config.Get()
	p, ok := cfg.OAuth2Providers[name]
	if !ok || !p.Configured() {
		return 0, config.OAuth2Provider{}, ErrProviderNotConfigured
	}
	return enum, p, nil
}

func oauth2Config(p config.OAuth2Provider) oauth2.Config {
	return oauth2.Config{
		ClientID:     p.ClientID.Value,
		ClientSecret: p.ClientSecret.Value,
		RedirectURL:  p.RedirectURL,
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
	}
}

// Begin starts an authorization flow. It signs a fresh state, remembers it
// for the callback and builds the provider's authorization URL, with a PKCE
// challenge when the provider wants one. No network call is made.
func (f *Flow) Begin(provider string) (*AuthRequest, error) {
	_, p, err := f.provider(provider)
	if err != nil {
		return nil, err
	}
	cfg := f.config.Get()

	state, expiresAt, err := encodeState(provider, []byte(cfg.Oauth2.StateSecret), cfg.Oauth2.StateDuration.Duration)
	if err != nil {
		return nil, fmt.Errorf("oauth2: signing state: %w", err)
	}
	f.states.Put(state, cfg.Oauth2.StateDuration.Duration)

	oc := oauth2Config(p)
	req := &AuthRequest{
		Provider:    provider,
		DisplayName: p.DisplayName,
		RedirectURL: p.RedirectURL,
		State:       state,
		ExpiresAt:   expiresAt,
	}
	if p.PKCE {
		codeVerifier := crypto.Oauth2CodeVerifier()
		codeChallenge := crypto.S256Challenge(codeVerifier)
		req.AuthURL = oc.AuthCodeURL(state,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", crypto.PKCECodeChallengeMethod),
		)
		req.CodeVerifier = codeVerifier
		req.CodeChallenge = codeChallenge
		req.CodeChallengeMethod = crypto.PKCECodeChallengeMethod
	} else {
		req.AuthURL = oc.AuthCodeURL(state)
	}
	return req, nil
}

// Complete finishes an authorization flow. The state is validated and
// consumed before anything leaves the process: the stored and returned
// values must match, the signature and freshness window must hold, and the
// state must be one this Flow issued for this provider and not seen before.
// Only then is the code exchanged and the user's profile fetched.
//
// The profile comes back with a verified email address; accounts the
// provider cannot vouch for fail with ErrNoVerifiedEmail.
func (f *Flow) Complete(ctx context.Context, req CallbackRequest) (*db.Oauth2Profile, error) {
	enum, p, err := f.provider(req.Provider)
	if err != nil {
		return nil, err
	}
	cfg := f.config.Get()

	if req.StoredState == "" || !crypto.ConstantTimeEqual(req.StoredState, req.ReturnedState) {
		return nil, ErrStateMismatch
	}
	stateProvider, err := decodeState(req.ReturnedState, []byte(cfg.Oauth2.StateSecret))
	if err != nil {
		return nil, err
	}
	if stateProvider != req.Provider {
		return nil, ErrStateMismatch
	}
	if !f.states.Take(req.ReturnedState) {
		return nil, ErrStateMismatch
	}

	if req.Code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", ErrExchangeFailed)
	}
	if p.PKCE && req.CodeVerifier == "" {
		return nil, fmt.Errorf("%w: missing code verifier", ErrExchangeFailed)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancel()

	oc := oauth2Config(p)
	var opts []oauth2.AuthCodeOption
	if p.PKCE {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", req.CodeVerifier))
	}
	token, err := oc.Exchange(exchangeCtx, req.Code, opts...)
	if err != nil {
		f.logger.Debug("oauth2 token exchange failed", "provider", req.Provider, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	client := oc.Client(exchangeCtx, token)
	profile, err := fetchProfile(exchangeCtx, client, p, enum)
	if err != nil {
		f.logger.Debug("oauth2 user info fetch failed", "provider", req.Provider, "error", err)
		return nil, err
	}

	if profile.Email == "" || !profile.EmailVerified {
		return nil, ErrNoVerifiedEmail
	}
	return profile, nil
}
