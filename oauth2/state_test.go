package oauth2

import (
	"errors"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()
	secret := []byte(testStateSecret)

	state, expiresAt, err := encodeState("google", secret, 10*time.Minute)
	if err != nil {
		t.Fatalf("encodeState() failed: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiresAt = %s is not in the future", expiresAt)
	}

	provider, err := decodeState(state, secret)
	if err != nil {
		t.Fatalf("decodeState() failed: %v", err)
	}
	if provider != "google" {
		t.Errorf("decoded provider = %q, want google", provider)
	}
}

func TestDecodeStateRejectsBadInput(t *testing.T) {
	t.Parallel()
	secret := []byte(testStateSecret)

	state, _, err := encodeState("google", secret, 10*time.Minute)
	if err != nil {
		t.Fatalf("encodeState() failed: %v", err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		otherSecret := []byte("ffffffffffffffffffffffffffffffff")
		if _, err := decodeState(state, otherSecret); !errors.Is(err, ErrStateMismatch) {
			t.Errorf("decodeState() error = %v, want ErrStateMismatch", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		if _, err := decodeState("not-a-state", secret); !errors.Is(err, ErrStateMismatch) {
			t.Errorf("decodeState() error = %v, want ErrStateMismatch", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		expired, _, err := encodeState("google", secret, -time.Minute)
		if err != nil {
			t.Fatalf("encodeState() failed: %v", err)
		}
		if _, err := decodeState(expired, secret); !errors.Is(err, ErrStateExpired) {
			t.Errorf("decodeState() error = %v, want ErrStateExpired", err)
		}
	})
}

func TestStateCacheTakeIsSingleUse(t *testing.T) {
	t.Parallel()
	cache, err := newStateCache()
	if err != nil {
		t.Fatalf("newStateCache() failed: %v", err)
	}
	defer cache.Close()

	cache.Put("state-1", time.Minute)
	if !cache.Take("state-1") {
		t.Fatal("first Take() = false, want true")
	}
	if cache.Take("state-1") {
		t.Error("second Take() = true, want false")
	}
	if cache.Take("never-issued") {
		t.Error("Take() of unknown state = true, want false")
	}
}
