package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dundas/lightauth/config"
	"github.com/dundas/lightauth/db"
)

// fetchProfile retrieves the user's identity from the provider and maps it
// onto the normalized profile the store understands. client carries the
// access token from the exchange.
func fetchProfile(ctx context.Context, client *http.Client, p config.OAuth2Provider, provider db.Oauth2Provider) (*db.Oauth2Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfoFailed, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfoFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrUserInfoFailed, resp.StatusCode)
	}

	switch provider {
	case db.Oauth2ProviderGoogle:
		return googleProfile(resp.Body)
	case db.Oauth2ProviderGithub:
		return githubProfile(ctx, client, p.UserInfoURL, resp.Body)
	}
	return nil, fmt.Errorf("%w: %s", db.ErrUnknownProvider, provider)
}

func googleProfile(body io.Reader) (*db.Oauth2Profile, error) {
	var user struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode google user info: %w", ErrUserInfoFailed, err)
	}
	if user.Sub == "" {
		return nil, fmt.Errorf("%w: google user info missing subject identifier", ErrUserInfoFailed)
	}
	return &db.Oauth2Profile{
		Provider:      db.Oauth2ProviderGoogle,
		ExternalID:    user.Sub,
		Email:         db.NormalizeEmail(user.Email),
		EmailVerified: user.EmailVerified,
		Name:          user.Name,
		Avatar:        user.Picture,
	}, nil
}

func githubProfile(ctx context.Context, client *http.Client, userInfoURL string, body io.Reader) (*db.Oauth2Profile, error) {
	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode github user info: %w", ErrUserInfoFailed, err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: github user info missing id", ErrUserInfoFailed)
	}

	profile := &db.Oauth2Profile{
		Provider:   db.Oauth2ProviderGithub,
		ExternalID: strconv.FormatInt(user.ID, 10),
		Email:      db.NormalizeEmail(user.Email),
		Name:       user.Name,
		Avatar:     user.AvatarURL,
	}
	if profile.Name == "" {
		profile.Name = user.Login
	}

	// The profile email is the public one, possibly absent and of unknown
	// verification status. The emails endpoint names the verified primary
	// address, which is the one worth linking.
	if email, ok := githubPrimaryEmail(ctx, client, userInfoURL+"/emails"); ok {
		profile.Email = db.NormalizeEmail(email)
		profile.EmailVerified = true
	}
	return profile, nil
}

// githubPrimaryEmail asks the emails endpoint for a verified address,
// preferring the primary one. Any failure reads as no verified email; the
// caller decides whether that is fatal.
func githubPrimaryEmail(ctx context.Context, client *http.Client, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", false
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return "", false
}
