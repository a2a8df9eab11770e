package store

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"

	"github.com/vostoksystem/station-meteo/internal/weather"
)

// entry holds a resolved series and the time it was stored.
type entry struct {
	samples  []weather.Sample
	storedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of resolved series.
// With no limits configured, entries live for the process lifetime.
type MemoryStore struct {
	mu sync.Mutex

	// key: resolver cache key
	data map[string]*entry
	lru  *simplelru.LRU

	// retention configuration
	maxEntries int           // max number of cached series
	ttl        time.Duration // optional max age of a cached series

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0 the store is unbounded; if ttl is <= 0 entries never expire.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
	if maxEntries > 0 {
		// NewLRU only fails on a non-positive size.
		s.lru, _ = simplelru.NewLRU(maxEntries, nil /* no onEvict policy */)
	} else {
		s.data = make(map[string]*entry)
	}
	return s
}

// Save stores a resolved series, evicting the least recently used one when full.
func (s *MemoryStore) Save(key string, samples []weather.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{samples: samples, storedAt: s.now()}
	if s.lru != nil {
		s.lru.Add(key, e)
		return
	}
	s.data[key] = e
}

// Get returns the cached series for key. Expired entries are misses.
func (s *MemoryStore) Get(key string) ([]weather.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	if s.expired(e, s.now()) {
		s.remove(key)
		return nil, false
	}
	return e.samples, true
}

// Len returns the number of cached series, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lru != nil {
		return s.lru.Len()
	}
	return len(s.data)
}

// Sweep drops every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, key := range s.keys() {
		e, ok := s.peek(key)
		if ok && s.expired(e, now) {
			s.remove(key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.storedAt) > s.ttl
}

func (s *MemoryStore) lookup(key string) (*entry, bool) {
	if s.lru != nil {
		v, ok := s.lru.Get(key)
		if !ok {
			return nil, false
		}
		return v.(*entry), true
	}
	e, ok := s.data[key]
	return e, ok
}

func (s *MemoryStore) peek(key string) (*entry, bool) {
	if s.lru != nil {
		v, ok := s.lru.Peek(key)
		if !ok {
			return nil, false
		}
		return v.(*entry), true
	}
	e, ok := s.data[key]
	return e, ok
}

func (s *MemoryStore) remove(key string) {
	if s.lru != nil {
		s.lru.Remove(key)
		return
	}
	delete(s.data, key)
}

func (s *MemoryStore) keys() []string {
	if s.lru != nil {
		raw := s.lru.Keys()
		keys := make([]string, 0, len(raw))
		for _, k := range raw {
			keys = append(keys, k.(string))
		}
		return keys
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
