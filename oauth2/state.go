package oauth2

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dundas/lightauth/crypto"
)

// stateClaimProvider is the claim binding a state to the provider it was
// issued for, so a state begun with one provider cannot finish with another.
const stateClaimProvider = "provider"

// encodeState signs a state artifact valid for the given window. The JWT
// form makes tampering and late callbacks detectable without a lookup.
func encodeState(provider string, secret []byte, window time.Duration) (string, time.Time, error) {
	return crypto.NewJwt(jwt.MapClaims{stateClaimProvider: provider}, secret, window)
}

// decodeState verifies a returned state and extracts the provider it was
// issued for. Expired states surface as ErrStateExpired; everything else
// wrong with the artifact is a mismatch.
func decodeState(state string, secret []byte) (string, error) {
	claims, err := crypto.ParseJwt(state, secret)
	if err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			return "", ErrStateExpired
		}
		return "", fmt.Errorf("%w: %w", ErrStateMismatch, err)
	}
	provider, _ := claims[stateClaimProvider].(string)
	if provider == "" {
		return "", ErrStateMismatch
	}
	return provider, nil
}
