package ttlstore

import (
	"context"
	"sync"
	"time"
)

// Store is a process-local key/value store with per-entry expiry. The
// report scheduler uses it as a dedup set and the metrics service as a
// short-lived result cache. A shared implementation (Redis etc.) can be
// substituted without touching call sites.
type Store interface {
	Set(key string, value interface{}, ttl time.Duration)
	Get(key string) (interface{}, bool)
	Has(key string) bool
	Delete(key string)
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	cancel  context.CancelFunc
}

// NewMemoryStore creates an in-memory Store and starts a janitor
// goroutine that sweeps expired entries on the given interval. Stop
// must be called when the owning component shuts down.
func NewMemoryStore(sweepInterval time.Duration) *memoryStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &memoryStore{
		entries: make(map[string]entry),
		cancel:  cancel,
	}
	go s.janitor(ctx, sweepInterval)
	return s
}

func (s *memoryStore) Set(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (s *memoryStore) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		s.Delete(key)
		return nil, false
	}
	return e.value, true
}

func (s *memoryStore) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *memoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Stop terminates the janitor goroutine.
func (s *memoryStore) Stop() {
	s.cancel()
}

func (s *memoryStore) janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
