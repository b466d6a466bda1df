package chacha20

import (
	"sync"
	"time"
)

// helloFilter remembers client ephemeral keys so a captured hello cannot be replayed
// while its timestamp is still acceptable.
type helloFilter struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[[32]byte]time.Time
}

func newHelloFilter(ttl time.Duration) *helloFilter {
	return &helloFilter{ttl: ttl, seen: make(map[[32]byte]time.Time)}
}

func (f *helloFilter) admit(key [32]byte, now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, expiry := range f.seen {
		if now.After(expiry) {
			delete(f.seen, k)
		}
	}
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = now.Add(f.ttl)
	return true
}
