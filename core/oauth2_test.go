package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dundas/lightauth/config"
	"github.com/dundas/lightauth/crypto"
	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/mock"
	"github.com/dundas/lightauth/oauth2"
)

func TestOauth2ErrorMapping(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		err  error
		want *Error
	}{
		{"unknown provider", oauth2.ErrProviderNotConfigured, ErrInvalidOauth2Provider},
		{"state mismatch", oauth2.ErrStateMismatch, ErrOauth2StateMismatch},
		{"state expired", oauth2.ErrStateExpired, ErrOauth2StateExpired},
		{"no verified email", oauth2.ErrNoVerifiedEmail, ErrOauth2UnverifiedEmail},
		{"exchange failed", oauth2.ErrExchangeFailed, ErrOauth2ExchangeFailed},
		{"user info failed", oauth2.ErrUserInfoFailed, ErrOauth2UserInfoFailed},
		{"anything else", errors.New("boom"), ErrInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := oauth2Error(tc.err); !errors.Is(got, tc.want) {
				t.Errorf("oauth2Error(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestOauth2WithoutFlow(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, &mock.Db{})

	if _, err := app.BeginOauth2("google"); !errors.Is(err, ErrInvalidOauth2Provider) {
		t.Errorf("BeginOauth2() without flow error = %v, want ErrInvalidOauth2Provider", err)
	}
	req := oauth2.CallbackRequest{Provider: "google", Code: "code-1"}
	if _, err := app.CompleteOauth2(context.Background(), req, testClient); !errors.Is(err, ErrInvalidOauth2Provider) {
		t.Errorf("CompleteOauth2() without flow error = %v, want ErrInvalidOauth2Provider", err)
	}
	providers, err := app.Oauth2Providers()
	if err != nil || len(providers) != 0 {
		t.Errorf("Oauth2Providers() without flow = %v, %v, want empty", providers, err)
	}
}

// newOauth2TestApp builds an App whose flow talks to httptest stand-ins for
// the google endpoints.
func newOauth2TestApp(t *testing.T, mockDb *mock.Db) *App {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at-1", "token_type": "Bearer"})
	}))
	t.Cleanup(tokenServer.Close)

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sub":            "goog-sub-1",
			"name":           "Test User",
			"picture":        "https://cdn.example.com/a.png",
			"email":          "Test.User@Example.COM",
			"email_verified": true,
		})
	}))
	t.Cleanup(userServer.Close)

	cfg := config.NewDefaultConfig()
	cfg.Oauth2.StateSecret = "0123456789abcdef0123456789abcdef"
	google := cfg.OAuth2Providers[config.OAuth2ProviderGoogle]
	google.RedirectURL = "https://app.example.com/oauth2/callback"
	google.TokenURL = tokenServer.URL
	google.UserInfoURL = userServer.URL
	google.ClientID.Value = "client-1"
	google.ClientSecret.Value = "secret-1"
	cfg.OAuth2Providers[config.OAuth2ProviderGoogle] = google

	provider := config.NewProvider(cfg)
	flow, err := oauth2.NewFlow(provider, nil)
	if err != nil {
		t.Fatalf("NewFlow() failed: %v", err)
	}
	t.Cleanup(flow.Close)

	app, err := NewApp(
		WithDbApp(mockDb),
		WithConfigProvider(provider),
		WithHasher(crypto.BcryptHasher{Cost: bcrypt.MinCost}),
		WithOauth2Flow(flow),
	)
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	app.now = func() time.Time { return testNow }
	return app
}

func TestCompleteOauth2SignsIn(t *testing.T) {
	t.Parallel()

	var upserted db.Oauth2Profile
	var createdSession db.Session
	mockDb := &mock.Db{
		UpsertUserWithOauth2Func: func(ctx context.Context, profile db.Oauth2Profile) (*db.User, error) {
			upserted = profile
			return &db.User{ID: "user-1", Email: profile.Email, Verified: true}, nil
		},
		CreateSessionFunc: func(ctx context.Context, session db.Session) (*db.Session, error) {
			createdSession = session
			return &session, nil
		},
	}
	app := newOauth2TestApp(t, mockDb)

	begin, err := app.BeginOauth2("google")
	if err != nil {
		t.Fatalf("BeginOauth2() failed: %v", err)
	}

	result, err := app.CompleteOauth2(context.Background(), oauth2.CallbackRequest{
		Provider:      "google",
		Code:          "code-1",
		ReturnedState: begin.State,
		StoredState:   begin.State,
		CodeVerifier:  begin.CodeVerifier,
	}, testClient)
	if err != nil {
		t.Fatalf("CompleteOauth2() failed: %v", err)
	}

	if upserted.Provider != db.Oauth2ProviderGoogle || upserted.ExternalID != "goog-sub-1" {
		t.Errorf("upserted profile = %+v, want google identity", upserted)
	}
	if upserted.Email != "test.user@example.com" || !upserted.EmailVerified {
		t.Errorf("upserted profile email = %+v, want normalized verified address", upserted)
	}
	if result.User == nil || result.User.ID != "user-1" {
		t.Errorf("result user = %+v", result.User)
	}
	if result.Session == nil || createdSession.UserID != "user-1" {
		t.Fatal("no session issued")
	}
	if createdSession.IP != testClient.IP || createdSession.UserAgent != testClient.UserAgent {
		t.Errorf("session metadata = %+v, want client info", createdSession)
	}
}

func TestCompleteOauth2Validation(t *testing.T) {
	t.Parallel()
	app := newOauth2TestApp(t, &mock.Db{})

	testCases := []struct {
		name string
		req  oauth2.CallbackRequest
		want *Error
	}{
		{"missing provider", oauth2.CallbackRequest{Code: "code-1"}, ErrMissingFields},
		{"missing code", oauth2.CallbackRequest{Provider: "google"}, ErrMissingFields},
		{"state mismatch", oauth2.CallbackRequest{
			Provider: "google", Code: "code-1", ReturnedState: "a", StoredState: "b",
		}, ErrOauth2StateMismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := app.CompleteOauth2(context.Background(), tc.req, testClient); !errors.Is(err, tc.want) {
				t.Errorf("CompleteOauth2() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBeginOauth2UnknownProvider(t *testing.T) {
	t.Parallel()
	app := newOauth2TestApp(t, &mock.Db{})

	if _, err := app.BeginOauth2("facebook"); !errors.Is(err, ErrInvalidOauth2Provider) {
		t.Errorf("BeginOauth2(facebook) error = %v, want ErrInvalidOauth2Provider", err)
	}
}

func TestOauth2ProvidersListsConfigured(t *testing.T) {
	t.Parallel()
	app := newOauth2TestApp(t, &mock.Db{})

	// Only google carries credentials; the github preset must not appear.
	providers, err := app.Oauth2Providers()
	if err != nil {
		t.Fatalf("Oauth2Providers() failed: %v", err)
	}
	if len(providers) != 1 || providers[0].Provider != "google" {
		t.Fatalf("Oauth2Providers() = %+v, want just google", providers)
	}
	if providers[0].State == "" || providers[0].AuthURL == "" {
		t.Errorf("offer incomplete: %+v", providers[0])
	}
}
