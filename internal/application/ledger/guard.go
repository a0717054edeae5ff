package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/shared"
)

// OperationGuard allows one long-running operation (import, bulk delete, discount) per ledger
type OperationGuard struct {
	mu     sync.Mutex
	active map[uuid.UUID]string
}

// NewOperationGuard creates an empty guard
func NewOperationGuard() *OperationGuard {
	return &OperationGuard{active: make(map[uuid.UUID]string)}
}

// Acquire marks op as running on the ledger. The returned func releases it.
func (g *OperationGuard) Acquire(ledgerID uuid.UUID, op string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if running, ok := g.active[ledgerID]; ok {
		return nil, shared.NewDomainError(ledger.CodeOperationInFlight,
			fmt.Sprintf("Cannot start %s: %s is still running for this ledger", op, running))
	}
	g.active[ledgerID] = op

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, ledgerID)
			g.mu.Unlock()
		})
	}, nil
}

// Running returns the operation in flight for the ledger, if any
func (g *OperationGuard) Running(ledgerID uuid.UUID) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	op, ok := g.active[ledgerID]
	return op, ok
}
