package bus

import (
	"sync"
	"time"
)

// DedupeCache drops inbound messages already seen within a TTL window.
// Channel webhooks redeliver on slow acks; the cache keeps one agent run
// per message.
type DedupeCache struct {
	mu      sync.Mutex
	entries map[string]int64 // key → unix millis
	ttl     time.Duration
	maxSize int
}

func NewDedupeCache(ttl time.Duration, maxSize int) *DedupeCache {
	return &DedupeCache{
		entries: make(map[string]int64, 256),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// IsDuplicate reports whether key was seen within the TTL. A fresh key is
// recorded for future checks.
func (d *DedupeCache) IsDuplicate(key string) bool {
	now := time.Now().UnixMilli()
	cutoff := now - d.ttl.Milliseconds()

	d.mu.Lock()
	defer d.mu.Unlock()

	if ts, ok := d.entries[key]; ok && ts >= cutoff {
		return true
	}

	// Lazy prune of expired entries; hard cap by dropping the oldest.
	if len(d.entries) >= d.maxSize {
		for k, ts := range d.entries {
			if ts < cutoff {
				delete(d.entries, k)
			}
		}
		if len(d.entries) >= d.maxSize {
			var oldestKey string
			var oldestTS int64 = 1<<63 - 1
			for k, ts := range d.entries {
				if ts < oldestTS {
					oldestKey, oldestTS = k, ts
				}
			}
			delete(d.entries, oldestKey)
		}
	}

	d.entries[key] = now
	return false
}
