// Package cache provides the TTL key/value store used for provider metadata
// and short-lived download tokens.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Store is a byte-oriented cache with per-entry expiry.
type Store interface {
	// Get returns the stored value and true, or nil and false when the key is missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Stats holds hit and miss counters for a store.
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Size      int
}

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// MemoryStore is an in-process Store with a background janitor.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	evictions atomic.Int64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore returns a MemoryStore. A positive cleanupInterval starts a
// goroutine that drops expired entries until Close is called.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	} else {
		close(s.done)
	}

	return s
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || e.expired(s.now()) {
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

// Set implements Store. A non-positive ttl keeps the entry until deleted.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	stored := make([]byte, len(value))
	copy(stored, value)

	e := entry{value: stored}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	s.sets.Add(1)
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Stats returns a snapshot of the store counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	size := len(s.entries)
	s.mu.RUnlock()

	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Sets:      s.sets.Load(),
		Evictions: s.evictions.Load(),
		Size:      size,
	}
}

// Close stops the janitor and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *MemoryStore) deleteExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			count++
		}
	}
	s.evictions.Add(int64(count))
	return count
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-s.stop:
			return
		}
	}
}

// Noop is a Store that never retains anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Noop) Set(context.Context, string, []byte, time.Duration) {}

func (Noop) Delete(context.Context, string) {}
