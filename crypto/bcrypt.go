package crypto

import "golang.org/x/crypto/bcrypt"

// BcryptHasher verifies stored values carried over from bcrypt deployments
// and can produce new ones where compatibility demands it. New installations
// should prefer Argon2Hasher.
type BcryptHasher struct {
	Cost int // defaults to bcrypt.DefaultCost
}

func (h BcryptHasher) ID() string { return "bcrypt" }

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

// Verify compares a bcrypt stored value with its possible plaintext
// equivalent. bcrypt's own comparison is already constant time.
func (h BcryptHasher) Verify(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
