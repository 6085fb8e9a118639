package cache

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/cpi-lookup-service/internal/domain"
	"github.com/couchcryptid/cpi-lookup-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

type entry struct {
	record    domain.CPIRecord
	expiresAt time.Time
}

// MemoryStore is an in-process TTL store for CPI records. Expired entries are
// treated as misses on read and removed by PurgeExpired or the sweeper.
// There is no size-based eviction.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewMemoryStore creates an empty store. A nil clock uses the real clock.
func NewMemoryStore(clock clockwork.Clock, metrics *observability.Metrics) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		clock:   clock,
		metrics: metrics,
	}
}

// Get returns a copy of the record under key if present and unexpired.
func (s *MemoryStore) Get(_ context.Context, key string) (domain.CPIRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !s.clock.Now().Before(e.expiresAt) {
		return domain.CPIRecord{}, false, nil
	}
	return e.record.Clone(), true, nil
}

// Set stores a copy of rec under key, replacing any existing entry and its expiry.
func (s *MemoryStore) Set(_ context.Context, key string, rec domain.CPIRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{record: rec.Clone(), expiresAt: s.clock.Now().Add(ttl)}
	return nil
}

// Len reports stored entries, including expired ones not yet purged.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// PurgeExpired removes expired entries and returns how many were removed.
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Run purges expired entries every interval until ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.PurgeExpired(); n > 0 && s.metrics != nil {
				s.metrics.CacheEntriesSwept.Add(float64(n))
			}
		}
	}
}
