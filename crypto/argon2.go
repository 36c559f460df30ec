package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Bounds applied to Argon2id parameters before any key derivation runs,
// whether the parameters come from configuration or from a stored value. A
// tampered stored value therefore cannot request unbounded memory or time.
const (
	argon2MinMemory      = 8 * 1024    // KiB, 8 MiB
	argon2MaxMemory      = 1024 * 1024 // KiB, 1 GiB
	argon2MinTime        = 1
	argon2MaxTime        = 16
	argon2MinParallelism = 1
	argon2MaxParallelism = 16
	argon2MinKeyLen      = 16
	argon2MaxKeyLen      = 64
	argon2MinSaltLen     = 8
	argon2MaxSaltLen     = 64
	argon2SaltLen        = 16
)

// Argon2Hasher derives stored values with Argon2id in the PHC string format:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
//
// Salt and key are unpadded standard base64, as the PHC reference encoder
// produces. Zero parameters are raised to the defaults of DefaultArgon2.
type Argon2Hasher struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

// DefaultArgon2 returns the second recommended option of RFC 9106: 64 MiB of
// memory, 3 passes, 4 lanes. Suited to environments where the first option's
// 2 GiB is not available.
func DefaultArgon2() Argon2Hasher {
	return Argon2Hasher{Memory: 64 * 1024, Time: 3, Parallelism: 4, KeyLen: 32}
}

func (h Argon2Hasher) ID() string { return "argon2id" }

func (h Argon2Hasher) Hash(password string) (string, error) {
	d := DefaultArgon2()
	memory := clampU32(h.Memory, d.Memory, argon2MinMemory, argon2MaxMemory)
	time := clampU32(h.Time, d.Time, argon2MinTime, argon2MaxTime)
	parallelism := clampU8(h.Parallelism, d.Parallelism, argon2MinParallelism, argon2MaxParallelism)
	keyLen := clampU32(h.KeyLen, d.KeyLen, argon2MinKeyLen, argon2MaxKeyLen)

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: reading salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, time, memory, parallelism, keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, time, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify re-derives the key with the parameters named in the stored value,
// clamped to the package bounds, and compares digests in constant time. Any
// parse failure is a mismatch, never an error.
func (h Argon2Hasher) Verify(stored, password string) bool {
	memory, time, parallelism, salt, want, ok := parseArgon2(stored)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, time, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parseArgon2(stored string) (memory, time uint32, parallelism uint8, salt, key []byte, ok bool) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return 0, 0, 0, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < argon2MinSaltLen || len(salt) > argon2MaxSaltLen {
		return 0, 0, 0, nil, nil, false
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < argon2MinKeyLen || len(key) > argon2MaxKeyLen {
		return 0, 0, 0, nil, nil, false
	}

	memory = clampU32(memory, argon2MinMemory, argon2MinMemory, argon2MaxMemory)
	time = clampU32(time, argon2MinTime, argon2MinTime, argon2MaxTime)
	parallelism = clampU8(parallelism, argon2MinParallelism, argon2MinParallelism, argon2MaxParallelism)
	return memory, time, parallelism, salt, key, true
}

func clampU32(v, zero, min, max uint32) uint32 {
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

func clampU8(v, zero, min, max uint8) uint8 {
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
