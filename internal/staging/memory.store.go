package staging

import (
	"context"
	"sync"
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
)

type memoryEntry struct {
	batch    *model.StagedBatch
	expireAt time.Time
}

// MemoryStore is a process-local Store for single-instance deployments and
// tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     window + expiryGrace,
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, b *model.StagedBatch) error {
	if sessionID == "" {
		return ErrEmptySession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.prune(now)
	cp := *b
	cp.Numbers = append([]model.Recipient(nil), b.Numbers...)
	s.entries[sessionID] = memoryEntry{batch: &cp, expireAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, sessionID string) (*model.StagedBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(s.now())
	e, ok := s.entries[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.entries, sessionID)
	return e.batch, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// prune must be called with mu held.
func (s *MemoryStore) prune(now time.Time) {
	for k, e := range s.entries {
		if now.After(e.expireAt) {
			delete(s.entries, k)
		}
	}
}
