package crypto

import (
	"crypto/sha256"
	"encoding/base64"
)

// Defined in RFC 7636 (PKCE). Allowed characters: A-Z, a-z, 0-9, and the symbols -, ., _, ~.
const pkceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// The OAuth2 specification (RFC 6749) doesn’t mandate a specific length. It
// recommends a random, unguessable string.
// At least 16 characters, though 32 to 64 characters is common
// for better uniqueness and security.
const Oauth2StateLength = 32

// Defined in RFC 7636 (PKCE). Its length must be between 43 and 128 characters.
const OauthCodeVerifierLength = 43

// PKCECodeChallengeMethod is the transform name sent alongside the code
// challenge. Only S256 is produced here; the plain method defeats the point.
const PKCECodeChallengeMethod = "S256"

// The state parameter helps prevent Cross-Site Request Forgery (CSRF) attacks
// by linking the authorization request to its callback.
// Should be URL-safe, here alphanumeric characters.
func Oauth2State() string {
	return RandomString(Oauth2StateLength, AlphanumericAlphabet)
}

func Oauth2CodeVerifier() string {
	return RandomString(OauthCodeVerifierLength, pkceAlphabet)
}

// S256Challenge derives the code challenge sent with the authorization
// request from the verifier kept server side, per RFC 7636 section 4.2.
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
