package cache

import (
	"context"
	"sync"

	"github.com/retreat/backend/internal/domain/ledger"
)

// MemoryDedupSession implements ledger.DedupSession with an in-process set.
// Claim is atomic, so concurrent import branches never create the same entity twice.
type MemoryDedupSession struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewMemoryDedupSession creates an empty session
func NewMemoryDedupSession() *MemoryDedupSession {
	return &MemoryDedupSession{claimed: make(map[string]struct{})}
}

// Reset forgets every claimed key
func (s *MemoryDedupSession) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed = make(map[string]struct{})
	return nil
}

// Seed marks keys as already present
func (s *MemoryDedupSession) Seed(ctx context.Context, keys ...ledger.DedupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.claimed[k.String()] = struct{}{}
	}
	return nil
}

// Claim returns true if the key was free and is now held by the caller
func (s *MemoryDedupSession) Claim(ctx context.Context, key ledger.DedupKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key.String()
	if _, exists := s.claimed[k]; exists {
		return false, nil
	}
	s.claimed[k] = struct{}{}
	return true, nil
}

// Release frees a key whose creation failed
func (s *MemoryDedupSession) Release(ctx context.Context, key ledger.DedupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, key.String())
	return nil
}

// Size returns the number of claimed keys (for testing/monitoring)
func (s *MemoryDedupSession) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claimed)
}

var _ ledger.DedupSession = (*MemoryDedupSession)(nil)
