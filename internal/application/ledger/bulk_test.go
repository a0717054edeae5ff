package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatches(t *testing.T) {
	entries := make([]ledger.Entry, 12)
	ledgerID := uuid.New()
	for i := range entries {
		rec, err := ledger.NewIncomeRecord(ledgerID, ledger.CategoryOther, int64(i), "", "")
		require.NoError(t, err)
		entries[i] = rec
	}
	failing := entries[7].GetID()

	var (
		mu          sync.Mutex
		inFlight    int32
		maxInFlight int32
		seen        []uuid.UUID
	)
	result := runBatches(context.Background(), entries, 5, func(_ context.Context, e ledger.Entry) error {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			cur := atomic.LoadInt32(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		seen = append(seen, e.GetID())
		mu.Unlock()
		if e.GetID() == failing {
			return errors.New("boom")
		}
		return nil
	})

	assert.Equal(t, 11, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, failing, result.Errors[0].ID)
	assert.Len(t, seen, 12, "a failing item does not stop its siblings or later batches")
	assert.LessOrEqual(t, maxInFlight, int32(5))
}

func TestLedgerService_BulkDelete(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()
	other := uuid.New()
	svc, expenses, income := newTestService(t)

	for i := 0; i < 7; i++ {
		_, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{Category: "MEAL", Amount: int64(i), IsPlanned: i%2 == 0})
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		_, err := svc.CreateIncome(ctx, ledgerID, IncomeInput{Category: "PROGRAM", Amount: int64(i)})
		require.NoError(t, err)
	}
	_, err := svc.CreateIncome(ctx, other, IncomeInput{Category: "PROGRAM", Amount: 1})
	require.NoError(t, err)

	result, err := svc.BulkDelete(ctx, ledgerID)

	require.NoError(t, err)
	assert.Equal(t, 11, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Zero(t, expenses.count(ledgerID))
	assert.Zero(t, income.count(ledgerID))
	assert.Equal(t, int64(1), income.count(other))

	view, err := svc.View(ctx, ledgerID)
	require.NoError(t, err)
	assert.Empty(t, view.Planned)
	assert.Empty(t, view.Executed)
	assert.Empty(t, view.Income)
}

func TestLedgerService_BulkDelete_PartialFailure(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()
	svc, expenses, _ := newTestService(t)

	var stuck uuid.UUID
	for i := 0; i < 3; i++ {
		resp, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{Category: "MEAL", Amount: 1})
		require.NoError(t, err)
		stuck = resp.ID
	}
	expenses.failOn[stuck] = errors.New("row locked")

	result, err := svc.BulkDelete(ctx, ledgerID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, int64(1), expenses.count(ledgerID))
}

func TestLedgerService_BulkDelete_Guarded(t *testing.T) {
	ledgerID := uuid.New()
	svc, _, _ := newTestService(t)

	release, err := svc.Guard().Acquire(ledgerID, "import")
	require.NoError(t, err)
	defer release()

	_, err = svc.BulkDelete(context.Background(), ledgerID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrOperationInFlight))
	assert.Contains(t, err.Error(), "import")
}
