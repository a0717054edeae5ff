package ledger

import (
	"sync"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
)

// ViewCache holds the last known snapshot per ledger.
// Local writes are hints applied to a cached snapshot; a refetch always replaces it.
type ViewCache struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*ledger.Snapshot
}

// NewViewCache creates an empty cache
func NewViewCache() *ViewCache {
	return &ViewCache{snapshots: make(map[uuid.UUID]*ledger.Snapshot)}
}

// Get returns a copy of the cached snapshot
func (c *ViewCache) Get(ledgerID uuid.UUID) (*ledger.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.snapshots[ledgerID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Put replaces the cached snapshot with authoritative content
func (c *ViewCache) Put(s *ledger.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[s.LedgerID] = s.Clone()
}

// Upsert applies a local write hint; ledgers not cached are left alone
func (c *ViewCache) Upsert(ledgerID uuid.UUID, entry ledger.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.snapshots[ledgerID]; ok {
		s.Upsert(ledger.CloneEntry(entry))
	}
}

// Remove drops a record from whichever cached ledger holds it
func (c *ViewCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.snapshots {
		if s.Remove(id) {
			return
		}
	}
}

// Invalidate forgets the cached snapshot of a ledger
func (c *ViewCache) Invalidate(ledgerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, ledgerID)
}
