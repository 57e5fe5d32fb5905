package store

import (
	"context"
	"sync"
	"time"

	"readiq.app/api/internal/model"
)

type memoryEntry struct {
	session   model.PaymentSession
	expiresAt time.Time
}

// MemoryPaymentSessionStore is a TTL map for single-instance and test setups.
// Expired entries are dropped on Take and by Sweep.
type MemoryPaymentSessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryPaymentSessionStore() *MemoryPaymentSessionStore {
	return &MemoryPaymentSessionStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock swaps the time source; tests use it to step past expiry.
func (s *MemoryPaymentSessionStore) WithClock(now func() time.Time) *MemoryPaymentSessionStore {
	s.now = now
	return s
}

func (s *MemoryPaymentSessionStore) Save(_ context.Context, session *model.PaymentSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.ID] = memoryEntry{
		session:   *session,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryPaymentSessionStore) Take(_ context.Context, id string) (*model.PaymentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.entries, id)
	if !s.now().Before(entry.expiresAt) {
		return nil, ErrNotFound
	}
	session := entry.session
	return &session, nil
}

// Sweep removes expired entries and reports how many were dropped.
func (s *MemoryPaymentSessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *MemoryPaymentSessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
