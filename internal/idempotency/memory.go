package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu     sync.Mutex
	now    func() time.Time
	claims map[string]time.Time // id -> expiry
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{now: time.Now, claims: make(map[string]time.Time)}
}

func (s *memoryStore) Claim(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.claims[id]; ok && now.Before(expiry) {
		return false, nil
	}

	// Sweep lazily; claim volume is bounded by webhook traffic.
	for key, expiry := range s.claims {
		if !now.Before(expiry) {
			delete(s.claims, key)
		}
	}

	s.claims[id] = now.Add(ttl)
	return true, nil
}

func (s *memoryStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, id)
	return nil
}
