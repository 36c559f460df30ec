package oauth2

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// stateCache remembers issued states until they are consumed or their TTL
// runs out, which is what makes a state single use. Capacity bounds the
// number of in flight flows; when it overflows, the least used states are
// dropped and their flows fail with a mismatch instead of growing memory.
type stateCache struct {
	mu    sync.Mutex
	cache *ristretto.Cache[string, struct{}]
}

func newStateCache() (*stateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: 10_000, // number of keys to track frequency of
		MaxCost:     1_000,  // in flight flows, cost 1 per state
		BufferItems: 64,     // number of keys per Get buffer
	})
	if err != nil {
		return nil, err
	}
	return &stateCache{cache: c}, nil
}

// Put registers a freshly issued state. Waits for the write buffer so the
// state is visible to a callback arriving right after.
func (s *stateCache) Put(state string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.SetWithTTL(state, struct{}{}, 1, ttl)
	s.cache.Wait()
}

// Take consumes a state, reporting whether it was present. The mutex makes
// the lookup and delete one step, so two concurrent callbacks with the same
// state cannot both succeed.
func (s *stateCache) Take(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache.Get(state)
	if ok {
		s.cache.Del(state)
		s.cache.Wait()
	}
	return ok
}

func (s *stateCache) Close() {
	s.cache.Close()
}
