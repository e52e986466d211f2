// Package cache memoises expensive results keyed by a content hash.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
	storedAt  time.Time
}

// Memo keeps computed values by key. Entries expire after ttl (zero keeps
// them forever) and at most maxEntries are held, oldest evicted first.
type Memo[V any] struct {
	mu         sync.Mutex
	items      map[string]item[V]
	ttl        time.Duration
	maxEntries int
	hits       int
	misses     int
	now        func() time.Time
}

func New[V any](ttl time.Duration, maxEntries int) *Memo[V] {
	return &Memo[V]{
		items:      make(map[string]item[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *Memo[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key, value)
}

func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(key)
}

// GetOrCompute returns the value stored under key, running compute on a
// miss. Errors are not cached. hit reports whether compute was skipped.
// Concurrent callers for the same key wait for a single computation.
func (m *Memo[V]) GetOrCompute(key string, compute func() (V, error)) (value V, hit bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.get(key); ok {
		m.hits++
		return v, true, nil
	}
	m.misses++
	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}
	m.set(key, v)
	return v, false, nil
}

func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// GetStats returns hit and miss counters.
func (m *Memo[V]) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]interface{}{
		"entries": len(m.items),
		"hits":    m.hits,
		"misses":  m.misses,
	}
}

func (m *Memo[V]) get(key string) (V, bool) {
	it, ok := m.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !it.expiresAt.IsZero() && m.now().After(it.expiresAt) {
		delete(m.items, key)
		var zero V
		return zero, false
	}
	return it.value, true
}

func (m *Memo[V]) set(key string, value V) {
	now := m.now()
	it := item[V]{value: value, storedAt: now}
	if m.ttl > 0 {
		it.expiresAt = now.Add(m.ttl)
	}
	m.items[key] = it
	m.cleanup(now)
}

// cleanup drops expired entries, then the oldest ones above maxEntries.
func (m *Memo[V]) cleanup(now time.Time) {
	for key, it := range m.items {
		if !it.expiresAt.IsZero() && now.After(it.expiresAt) {
			delete(m.items, key)
		}
	}
	for m.maxEntries > 0 && len(m.items) > m.maxEntries {
		oldest, oldestAt := "", time.Time{}
		for key, it := range m.items {
			if oldest == "" || it.storedAt.Before(oldestAt) || (it.storedAt.Equal(oldestAt) && key < oldest) {
				oldest, oldestAt = key, it.storedAt
			}
		}
		delete(m.items, oldest)
	}
}

// GenerateKey hashes parts into a hex key.
func GenerateKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
