// Package cache holds in-memory lookups that sit in front of the database,
// such as the set of recently ingested message fingerprints.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// SeenSet remembers keys for a bounded time. A miss does not prove a key is
// new; the database stays authoritative.
type SeenSet struct {
	lru *LRUCache[struct{}]
}

func NewSeenSet(maxSize int, ttl time.Duration) *SeenSet {
	return &SeenSet{lru: NewLRUCache[struct{}](maxSize, ttl)}
}

func (s *SeenSet) Seen(key string) bool {
	_, ok := s.lru.Get(key)
	return ok
}

func (s *SeenSet) Mark(key string) { s.lru.Set(key, struct{}{}) }

func (s *SeenSet) Forget(key string) { s.lru.Delete(key) }

func (s *SeenSet) Size() int { return s.lru.Size() }

func (s *SeenSet) CleanExpired() int { return s.lru.CleanExpired() }

// Manager periodically purges expired entries from registered caches.
type Manager struct {
	mu       sync.Mutex
	caches   []Cleaner
	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the total removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// StartCleanup sweeps every interval until Stop is called.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					slog.Debug("Expired cache entries removed", "count", n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine started by StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.done
		}
	})
}
