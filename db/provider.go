package db

import "fmt"

// Oauth2Provider enumerates the identity providers the store can link. New
// providers are added here and nowhere else; everything downstream switches
// on the enum instead of comparing strings.
type Oauth2Provider int

const (
	Oauth2ProviderGithub Oauth2Provider = iota + 1
	Oauth2ProviderGoogle
)

// ParseOauth2Provider maps a provider name from configuration or a request
// path onto the enum.
func ParseOauth2Provider(name string) (Oauth2Provider, error) {
	switch name {
	case "github":
		return Oauth2ProviderGithub, nil
	case "google":
		return Oauth2ProviderGoogle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

func (p Oauth2Provider) String() string {
	switch p {
	case Oauth2ProviderGithub:
		return "github"
	case Oauth2ProviderGoogle:
		return "google"
	}
	return fmt.Sprintf("oauth2provider(%d)", int(p))
}

// Column returns the users table column holding this provider's external
// identifier. Unknown values error instead of being interpolated into SQL.
func (p Oauth2Provider) Column() (string, error) {
	switch p {
	case Oauth2ProviderGithub:
		return "github_id", nil
	case Oauth2ProviderGoogle:
		return "google_id", nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownProvider, int(p))
}

// ExternalID returns the identifier linked for p on u, empty when the
// account was never linked to p.
func (p Oauth2Provider) ExternalID(u *User) string {
	switch p {
	case Oauth2ProviderGithub:
		return u.GithubID
	case Oauth2ProviderGoogle:
		return u.GoogleID
	}
	return ""
}
