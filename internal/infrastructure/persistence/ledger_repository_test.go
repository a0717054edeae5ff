package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/retreat/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every pooled connection to :memory: would get its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(models.All()...)
	require.NoError(t, err)

	return db
}

func ptrTo[T any](v T) *T { return &v }

func TestGormExpenseRecordRepository_SaveAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormExpenseRecordRepository(db)
	ctx := context.Background()
	ledgerID := uuid.New()

	rec, err := ledger.NewExpenseRecord(ledgerID, ledger.CategoryMeal, 120, "Meals: 4 services", "", true)
	require.NoError(t, err)
	rate := decimal.NewFromInt(10)
	require.NoError(t, rec.SetDiscountRate(&rate))
	require.NoError(t, repo.Save(ctx, rec))

	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, ledgerID, found.LedgerID)
	assert.Equal(t, ledger.CategoryMeal, found.Category)
	assert.Equal(t, int64(120), found.Amount)
	assert.True(t, found.IsPlanned)
	assert.Equal(t, "Meals: 4 services", found.Details)
	require.NotNil(t, found.DiscountRate)
	assert.True(t, rate.Equal(*found.DiscountRate))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormExpenseRecordRepository_FindByLedger(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormExpenseRecordRepository(db)
	ctx := context.Background()
	ledgerID := uuid.New()

	seed := []struct {
		cat     ledger.Category
		amount  int64
		planned bool
	}{
		{ledger.CategoryLodging, 300, true},
		{ledger.CategoryLodging, 300, false},
		{ledger.CategoryMeal, 50, true},
		{ledger.CategorySupply, 10, false},
	}
	for _, s := range seed {
		rec, err := ledger.NewExpenseRecord(ledgerID, s.cat, s.amount, "", "", s.planned)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, rec))
	}
	other, _ := ledger.NewExpenseRecord(uuid.New(), ledger.CategoryMeal, 1, "", "", true)
	require.NoError(t, repo.Save(ctx, other))

	t.Run("all records of the ledger", func(t *testing.T) {
		records, err := repo.FindByLedger(ctx, ledgerID, ledger.ExpenseFilter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("planned only", func(t *testing.T) {
		records, err := repo.FindByLedger(ctx, ledgerID, ledger.ExpenseFilter{IsPlanned: ptrTo(true)})
		require.NoError(t, err)
		assert.Len(t, records, 2)
		for _, r := range records {
			assert.True(t, r.IsPlanned)
		}
	})

	t.Run("by category ordered by amount", func(t *testing.T) {
		cat := ledger.CategoryLodging
		records, err := repo.FindByLedger(ctx, ledgerID, ledger.ExpenseFilter{
			Filter:   shared.Filter{OrderBy: "amount", OrderDir: "desc"},
			Category: &cat,
		})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("paging", func(t *testing.T) {
		records, err := repo.FindByLedger(ctx, ledgerID, ledger.ExpenseFilter{
			Filter: shared.Filter{OrderBy: "amount", OrderDir: "asc", Page: 2, PageSize: 3},
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(300), records[0].Amount)
	})

	t.Run("count", func(t *testing.T) {
		count, err := repo.CountByLedger(ctx, ledgerID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})
}

func TestGormExpenseRecordRepository_SaveWithLock(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormExpenseRecordRepository(db)
	ctx := context.Background()

	rec, err := ledger.NewExpenseRecord(uuid.New(), ledger.CategoryMeal, 100, "", "", true)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rec))

	stale, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)

	t.Run("updates and bumps version", func(t *testing.T) {
		require.NoError(t, rec.ApplyDiscount(decimal.NewFromInt(10)))
		rec.SetPlanned(false)
		require.NoError(t, repo.SaveWithLock(ctx, rec))
		assert.Equal(t, 2, rec.Version)

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(90), found.Amount)
		assert.False(t, found.IsPlanned)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("clearing the rate writes null", func(t *testing.T) {
		rec.RestoreAmount(100)
		require.NoError(t, repo.SaveWithLock(ctx, rec))

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Nil(t, found.DiscountRate)
		assert.Equal(t, int64(100), found.Amount)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		err := repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("missing record is not found", func(t *testing.T) {
		ghost, _ := ledger.NewExpenseRecord(uuid.New(), ledger.CategoryMeal, 1, "", "", true)
		err := repo.SaveWithLock(ctx, ghost)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormExpenseRecordRepository_Delete(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormExpenseRecordRepository(db)
	ctx := context.Background()

	rec, _ := ledger.NewExpenseRecord(uuid.New(), ledger.CategoryOther, 5, "", "", false)
	require.NoError(t, repo.Save(ctx, rec))

	require.NoError(t, repo.Delete(ctx, rec.ID))
	err := repo.Delete(ctx, rec.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormIncomeRecordRepository(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormIncomeRecordRepository(db)
	ctx := context.Background()
	ledgerID := uuid.New()

	lodging, err := ledger.NewIncomeRecord(ledgerID, ledger.CategoryLodging, 400, "Lodging: 2 rooms, 4 room-nights", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, lodging))
	meals, _ := ledger.NewIncomeRecord(ledgerID, ledger.CategoryMeal, 80, "Meals: 8 services (retail)", "")
	require.NoError(t, repo.Save(ctx, meals))

	t.Run("search matches details", func(t *testing.T) {
		records, err := repo.FindByLedger(ctx, ledgerID, ledger.IncomeFilter{Filter: shared.Filter{Search: "room-nights"}})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, lodging.ID, records[0].ID)
	})

	t.Run("dedup key survives the round trip", func(t *testing.T) {
		found, err := repo.FindByID(ctx, meals.ID)
		require.NoError(t, err)
		key, ok := found.DedupKey()
		require.True(t, ok)
		assert.Equal(t, ledger.IncomeKey("Meals", ledger.CategoryMeal), key)
	})

	t.Run("save with lock and delete", func(t *testing.T) {
		require.NoError(t, meals.ApplyDiscount(decimal.NewFromInt(50)))
		require.NoError(t, repo.SaveWithLock(ctx, meals))

		found, err := repo.FindByID(ctx, meals.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(40), found.Amount)

		require.NoError(t, repo.Delete(ctx, meals.ID))
		assert.ErrorIs(t, repo.Delete(ctx, meals.ID), shared.ErrNotFound)

		count, err := repo.CountByLedger(ctx, ledgerID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
