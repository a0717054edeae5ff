package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*LedgerService, *memoryExpenseRepo, *memoryIncomeRepo) {
	t.Helper()
	expenses := newMemoryExpenseRepo()
	income := newMemoryIncomeRepo()
	return NewLedgerService(expenses, income, WithLogger(zaptest.NewLogger(t))), expenses, income
}

func ptr[T any](v T) *T {
	return &v
}

func TestLedgerService_CreateExpense(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	t.Run("creates planned record", func(t *testing.T) {
		svc, expenses, _ := newTestService(t)

		resp, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{
			Category:  "MEAL",
			Amount:    120,
			Details:   "Meals: 3 services",
			IsPlanned: true,
		})

		require.NoError(t, err)
		assert.Equal(t, ledger.PartitionPlanned, resp.Partition)
		assert.Equal(t, "Meals", resp.CategoryName)
		require.NotNil(t, resp.IsPlanned)
		assert.True(t, *resp.IsPlanned)
		assert.Equal(t, int64(1), expenses.count(ledgerID))
	})

	t.Run("missing category is rejected before the store is touched", func(t *testing.T) {
		repo := new(MockExpenseRecordRepository)
		svc := NewLedgerService(repo, newMemoryIncomeRepo())

		_, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{Amount: 10})

		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrValidation))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("negative amount is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{Category: "MEAL", Amount: -5})
		assert.True(t, errors.Is(err, ledger.ErrValidation))
	})

	t.Run("discount rate out of range is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{
			Category:     "MEAL",
			Amount:       5,
			DiscountRate: ptr(decimal.NewFromInt(120)),
		})
		assert.True(t, errors.Is(err, ledger.ErrValidation))
	})

	t.Run("store failure surfaces as persistence error", func(t *testing.T) {
		repo := new(MockExpenseRecordRepository)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*ledger.ExpenseRecord")).Return(errors.New("connection reset"))
		svc := NewLedgerService(repo, newMemoryIncomeRepo())

		_, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{Category: "MEAL", Amount: 5})

		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrPersistence))
		assert.Contains(t, err.Error(), "connection reset")
		repo.AssertExpectations(t)
	})
}

func TestLedgerService_UpdateExpense_FlipPartition(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()
	svc, _, _ := newTestService(t)

	created, err := svc.CreateExpense(ctx, ledgerID, ExpenseInput{Category: "SUPPLY", Amount: 40, IsPlanned: true})
	require.NoError(t, err)

	before, err := svc.RefetchLedger(ctx, ledgerID)
	require.NoError(t, err)
	require.Len(t, before.Planned, 1)

	_, err = svc.UpdateExpense(ctx, created.ID, ExpensePatch{IsPlanned: ptr(false), Amount: ptr(int64(45))})
	require.NoError(t, err)

	cached, err := svc.View(ctx, ledgerID)
	require.NoError(t, err)
	assert.Empty(t, cached.Planned)
	require.Len(t, cached.Executed, 1)
	assert.Equal(t, int64(45), cached.Executed[0].Amount)

	fresh, err := svc.RefetchLedger(ctx, ledgerID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Planned)
	require.Len(t, fresh.Executed, 1)
	assert.Equal(t, created.ID, fresh.Executed[0].ID)
}

func TestLedgerService_UpdateExpense_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	created, err := svc.CreateExpense(ctx, uuid.New(), ExpenseInput{Category: "SUPPLY", Amount: 40})
	require.NoError(t, err)

	_, err = svc.UpdateExpense(ctx, created.ID, ExpensePatch{Category: ptr("")})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = svc.UpdateExpense(ctx, uuid.New(), ExpensePatch{Notes: ptr("x")})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestLedgerService_Delete(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()

	t.Run("already deleted upstream counts as success", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		created, err := svc.CreateIncome(ctx, ledgerID, IncomeInput{Category: "PROGRAM", Amount: 10})
		require.NoError(t, err)
		_, err = svc.RefetchLedger(ctx, ledgerID)
		require.NoError(t, err)

		ok, err := svc.DeleteIncome(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.DeleteIncome(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		view, err := svc.View(ctx, ledgerID)
		require.NoError(t, err)
		assert.Empty(t, view.Income)
	})

	t.Run("store failure is reported", func(t *testing.T) {
		repo := new(MockExpenseRecordRepository)
		id := uuid.New()
		repo.On("Delete", mock.Anything, id).Return(errors.New("timeout"))
		svc := NewLedgerService(repo, newMemoryIncomeRepo())

		ok, err := svc.DeleteExpense(ctx, id)

		assert.False(t, ok)
		assert.True(t, errors.Is(err, ledger.ErrPersistence))
	})
}

func TestLedgerService_RefetchTotals(t *testing.T) {
	ctx := context.Background()
	ledgerID := uuid.New()
	svc, _, _ := newTestService(t)

	_, _ = svc.CreateExpense(ctx, ledgerID, ExpenseInput{Category: "MEAL", Amount: 100, IsPlanned: true})
	_, _ = svc.CreateExpense(ctx, ledgerID, ExpenseInput{Category: "MEAL", Amount: 90})
	_, _ = svc.CreateIncome(ctx, ledgerID, IncomeInput{Category: "MEAL", Amount: 150})
	_, _ = svc.CreateIncome(ctx, uuid.New(), IncomeInput{Category: "MEAL", Amount: 999})

	snap, err := svc.RefetchLedger(ctx, ledgerID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), snap.PlannedTotal)
	assert.Equal(t, int64(90), snap.ExecutedTotal)
	assert.Equal(t, int64(150), snap.IncomeTotal)
}
