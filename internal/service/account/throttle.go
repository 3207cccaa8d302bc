package account

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryThrottle mirrors the persisted login attempt log in process
// memory so the lockout still engages when the store is unreachable.
// It is restrictive only: it can deny a login, never permit one the
// log would deny.
type memoryThrottle struct {
	failures  *gocache.Cache
	threshold int
}

func newMemoryThrottle(window time.Duration, threshold int) *memoryThrottle {
	return &memoryThrottle{
		failures:  gocache.New(window, 2*window),
		threshold: threshold,
	}
}

func (t *memoryThrottle) recordFailure(email string) {
	if err := t.failures.Add(email, 1, gocache.DefaultExpiration); err != nil {
		// Entry exists; bump it. Expiry stays anchored to the first
		// failure, which is stricter than the sliding window and
		// therefore safe.
		_, _ = t.failures.IncrementInt(email, 1)
	}
}

func (t *memoryThrottle) locked(email string) bool {
	v, ok := t.failures.Get(email)
	if !ok {
		return false
	}
	count, _ := v.(int)
	return count >= t.threshold
}

func (t *memoryThrottle) reset(email string) {
	t.failures.Delete(email)
}
