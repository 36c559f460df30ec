package crypto

import "strings"

// Hasher turns plaintext passwords into self-describing stored values and
// checks candidates against them.
//
// A stored value carries the algorithm name and every parameter needed to
// re-derive the digest, so verification never depends on runtime
// configuration. Verify treats malformed or foreign values as a mismatch; it
// must never fail with an error or panic on attacker-controlled input.
type Hasher interface {
	// ID is the algorithm tag recorded inside stored values.
	ID() string

	// Hash derives a new stored value for password, with a fresh salt.
	Hash(password string) (string, error)

	// Verify reports whether password matches the stored value.
	Verify(stored, password string) bool
}

// VerifyStored checks password against a stored value of any supported
// algorithm, dispatching on the value's own prefix. This keeps old rows
// verifiable after the configured Hasher changes. Unknown prefixes and
// malformed values verify as false.
func VerifyStored(stored, password string) bool {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		return Argon2Hasher{}.Verify(stored, password)
	case strings.HasPrefix(stored, "$pbkdf2-"):
		return Pbkdf2Hasher{}.Verify(stored, password)
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		return BcryptHasher{}.Verify(stored, password)
	}
	return false
}
