package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/shared"
)

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	Category  *Category
	IsPlanned *bool
}

// IncomeFilter defines filtering options for income queries
type IncomeFilter struct {
	shared.Filter
	Category *Category
}

// ExpenseRecordRepository defines the interface for expense record persistence
type ExpenseRecordRepository interface {
	// FindByID finds an expense record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ExpenseRecord, error)

	// FindByLedger finds all expense records of a ledger
	FindByLedger(ctx context.Context, ledgerID uuid.UUID, filter ExpenseFilter) ([]ExpenseRecord, error)

	// Save creates or updates an expense record
	Save(ctx context.Context, record *ExpenseRecord) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, record *ExpenseRecord) error

	// Delete removes an expense record; shared.ErrNotFound when it does not exist
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByLedger counts expense records of a ledger
	CountByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error)
}

// IncomeRecordRepository defines the interface for income record persistence
type IncomeRecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*IncomeRecord, error)
	FindByLedger(ctx context.Context, ledgerID uuid.UUID, filter IncomeFilter) ([]IncomeRecord, error)
	Save(ctx context.Context, record *IncomeRecord) error
	SaveWithLock(ctx context.Context, record *IncomeRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error)
}
