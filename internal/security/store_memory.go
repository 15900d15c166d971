package security

import (
	"context"
	"sync"
	"time"
)

const memorySweepInterval = time.Minute

type memoryCounter struct {
	count     int
	expiresAt time.Time
}

// MemoryStore keeps counters in process memory. Counters are per instance, so
// it only enforces the documented cap for single-instance deployments.
type MemoryStore struct {
	mu        sync.Mutex
	counters  map[string]*memoryCounter
	now       func() time.Time
	nextSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*memoryCounter),
		now:      time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	ctr, ok := s.counters[key]
	if !ok || !now.Before(ctr.expiresAt) {
		ctr = &memoryCounter{expiresAt: now.Add(ttl)}
		s.counters[key] = ctr
	}
	ctr.count++
	return ctr.count, nil
}

func (s *MemoryStore) Decrement(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctr, ok := s.counters[key]
	if !ok {
		return nil
	}
	ctr.count--
	if ctr.count <= 0 {
		delete(s.counters, key)
	}
	return nil
}

// Len reports the number of live counters.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for k, ctr := range s.counters {
		if !now.Before(ctr.expiresAt) {
			delete(s.counters, k)
		}
	}
	s.nextSweep = now.Add(memorySweepInterval)
}
