package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Bounds applied to PBKDF2 parameters before any key derivation runs. Same
// rationale as the Argon2id bounds: stored values are input, not policy.
const (
	pbkdf2MinIterations = 10_000
	pbkdf2MaxIterations = 10_000_000
	pbkdf2MinKeyLen     = 16
	pbkdf2MaxKeyLen     = 64
	pbkdf2MinSaltLen    = 8
	pbkdf2MaxSaltLen    = 64
	pbkdf2SaltLen       = 16
)

// Digest names accepted inside pbkdf2 stored values.
const (
	Pbkdf2SHA256 = "sha256"
	Pbkdf2SHA512 = "sha512"
)

// Pbkdf2Hasher is the iterative fallback for environments without enough
// memory for Argon2id. Stored values name the digest and iteration count:
//
//	$pbkdf2-sha256$i=600000$<salt>$<key>
//
// Salt and key are unpadded URL-safe base64. Zero parameters are raised to
// the defaults of DefaultPbkdf2.
type Pbkdf2Hasher struct {
	Iterations int
	KeyLen     int
	Digest     string // Pbkdf2SHA256 or Pbkdf2SHA512, defaults to SHA-256
}

// DefaultPbkdf2 returns 600k iterations of PBKDF2-HMAC-SHA256 with a 32 byte
// key, the OWASP password storage baseline for this construction.
func DefaultPbkdf2() Pbkdf2Hasher {
	return Pbkdf2Hasher{Iterations: 600_000, KeyLen: 32, Digest: Pbkdf2SHA256}
}

func (h Pbkdf2Hasher) ID() string {
	return "pbkdf2-" + h.digest()
}

func (h Pbkdf2Hasher) digest() string {
	if h.Digest == "" {
		return Pbkdf2SHA256
	}
	return h.Digest
}

func (h Pbkdf2Hasher) Hash(password string) (string, error) {
	newHash, ok := pbkdf2Digest(h.digest())
	if !ok {
		return "", fmt.Errorf("crypto: unknown pbkdf2 digest %q", h.Digest)
	}
	d := DefaultPbkdf2()
	iterations := clampInt(h.Iterations, d.Iterations, pbkdf2MinIterations, pbkdf2MaxIterations)
	keyLen := clampInt(h.KeyLen, d.KeyLen, pbkdf2MinKeyLen, pbkdf2MaxKeyLen)

	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: reading salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLen, newHash)

	return fmt.Sprintf("$%s$i=%d$%s$%s",
		h.ID(), iterations,
		base64.RawURLEncoding.EncodeToString(salt),
		base64.RawURLEncoding.EncodeToString(key)), nil
}

// Verify re-derives the key with the digest and iteration count named in the
// stored value, clamped to the package bounds, and compares digests in
// constant time. Any parse failure is a mismatch, never an error.
func (h Pbkdf2Hasher) Verify(stored, password string) bool {
	newHash, iterations, salt, want, ok := parsePbkdf2(stored)
	if !ok {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), newHash)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parsePbkdf2(stored string) (newHash func() hash.Hash, iterations int, salt, key []byte, ok bool) {
	parts := strings.Split(stored, "$")
	if len(parts) != 5 || parts[0] != "" {
		return nil, 0, nil, nil, false
	}
	digest, found := strings.CutPrefix(parts[1], "pbkdf2-")
	if !found {
		return nil, 0, nil, nil, false
	}
	newHash, ok = pbkdf2Digest(digest)
	if !ok {
		return nil, 0, nil, nil, false
	}

	if _, err := fmt.Sscanf(parts[2], "i=%d", &iterations); err != nil {
		return nil, 0, nil, nil, false
	}
	iterations = clampInt(iterations, pbkdf2MinIterations, pbkdf2MinIterations, pbkdf2MaxIterations)

	salt, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil || len(salt) < pbkdf2MinSaltLen || len(salt) > pbkdf2MaxSaltLen {
		return nil, 0, nil, nil, false
	}
	key, err = base64.RawURLEncoding.DecodeString(parts[4])
	if err != nil || len(key) < pbkdf2MinKeyLen || len(key) > pbkdf2MaxKeyLen {
		return nil, 0, nil, nil, false
	}
	return newHash, iterations, salt, key, true
}

func pbkdf2Digest(name string) (func() hash.Hash, bool) {
	switch name {
	case Pbkdf2SHA256:
		return sha256.New, true
	case Pbkdf2SHA512:
		return sha512.New, true
	}
	return nil, false
}

func clampInt(v, zero, min, max int) int {
	if v == 0 {
		v = zero
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
