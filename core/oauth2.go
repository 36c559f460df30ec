package core

import (
	"context"
	"errors"
	"sort"

	"github.com/dundas/lightauth/oauth2"
)

// Oauth2Providers builds a sign in offer for every configured provider,
// each with its own fresh state, ready to hand to a client as the list of
// available identity providers. The list is sorted by provider name.
func (a *App) Oauth2Providers() ([]*oauth2.AuthRequest, error) {
	if a.flow == nil {
		return nil, nil
	}

	cfg := a.Config()
	names := make([]string, 0, len(cfg.OAuth2Providers))
	for name, provider := range cfg.OAuth2Providers {
		if provider.Configured() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	requests := make([]*oauth2.AuthRequest, 0, len(names))
	for _, name := range names {
		req, err := a.flow.Begin(name)
		if err != nil {
			return nil, oauth2Error(err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// BeginOauth2 starts the authorization code flow against one provider and
// returns the artifacts the client needs to redirect the user.
func (a *App) BeginOauth2(provider string) (*oauth2.AuthRequest, error) {
	if a.flow == nil {
		return nil, ErrInvalidOauth2Provider
	}
	req, err := a.flow.Begin(provider)
	if err != nil {
		return nil, oauth2Error(err)
	}
	return req, nil
}

// CompleteOauth2 finishes the authorization code flow, links the provider
// identity to an account and signs the user in. The account is created on
// first sign in and found again by provider identity, then by email, on
// later ones.
func (a *App) CompleteOauth2(ctx context.Context, req oauth2.CallbackRequest, client ClientInfo) (*AuthResult, error) {
	if a.flow == nil {
		return nil, ErrInvalidOauth2Provider
	}
	if req.Provider == "" || req.Code == "" {
		return nil, ErrMissingFields
	}

	profile, err := a.flow.Complete(ctx, req)
	if err != nil {
		return nil, oauth2Error(err)
	}

	user, err := a.db.UpsertUserWithOauth2(ctx, *profile)
	if err != nil {
		return nil, storeError(err)
	}

	session, err := a.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, err
	}

	a.logger.Info("oauth2 login", "user_id", user.ID, "provider", profile.Provider.String())
	return &AuthResult{User: user, Session: session}, nil
}

// oauth2Error maps flow failures onto the workflow taxonomy.
func oauth2Error(err error) *Error {
	switch {
	case errors.Is(err, oauth2.ErrProviderNotConfigured):
		return ErrInvalidOauth2Provider.withCause(err)
	case errors.Is(err, oauth2.ErrStateExpired):
		return ErrOauth2StateExpired.withCause(err)
	case errors.Is(err, oauth2.ErrStateMismatch):
		return ErrOauth2StateMismatch.withCause(err)
	case errors.Is(err, oauth2.ErrNoVerifiedEmail):
		return ErrOauth2UnverifiedEmail.withCause(err)
	case errors.Is(err, oauth2.ErrExchangeFailed):
		return ErrOauth2ExchangeFailed.withCause(err)
	case errors.Is(err, oauth2.ErrUserInfoFailed):
		return ErrOauth2UserInfoFailed.withCause(err)
	}
	return ErrInternal.withCause(err)
}
