package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
)

// AlphanumericAlphabet holds the characters safe to embed in URLs and query
// strings without escaping.
const AlphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// TokenBytes is the entropy, before encoding, of single-use tokens
	// handed out for email verification and password resets.
	TokenBytes = 32

	// SessionIDBytes is the entropy, before encoding, of session
	// identifiers.
	SessionIDBytes = 25
)

// GenerateToken returns n random bytes encoded as unpadded URL-safe base64.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto: reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewToken creates an opaque single-use token for email flows.
func NewToken() (string, error) {
	return GenerateToken(TokenBytes)
}

// NewSessionID creates an opaque session identifier.
func NewSessionID() (string, error) {
	return GenerateToken(SessionIDBytes)
}

// RandomString builds a string of the given length from alphabet using
// crypto/rand. Characters are drawn with rejection-free uniform sampling, so
// no alphabet position is favored. Panics on an empty alphabet or a broken
// entropy source.
func RandomString(length int, alphabet string) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}

// ConstantTimeEqual reports whether a and b are equal without leaking the
// position of the first differing byte through timing.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
