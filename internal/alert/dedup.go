package alert

import (
	"sync"
	"time"
)

// dedup suppresses repeat alerts for the same opportunity key within a
// time-to-live window. Safe for concurrent use.
type dedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newDedup(ttl time.Duration) *dedup {
	return &dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// Suppress reports whether key already fired within the TTL window.
// Unseen and expired keys are recorded and not suppressed.
func (d *dedup) Suppress(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.seen[key]; ok && now.Sub(last) < d.ttl {
		return true
	}
	d.seen[key] = now
	return false
}

// Cleanup drops entries older than the TTL so the map stays bounded.
func (d *dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for key, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, key)
		}
	}
}
