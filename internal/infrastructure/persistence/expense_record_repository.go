package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/retreat/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseRecordRepository implements ledger.ExpenseRecordRepository using GORM
type GormExpenseRecordRepository struct {
	db *gorm.DB
}

// NewGormExpenseRecordRepository creates a new GormExpenseRecordRepository
func NewGormExpenseRecordRepository(db *gorm.DB) *GormExpenseRecordRepository {
	return &GormExpenseRecordRepository{db: db}
}

// FindByID finds an expense record by its ID
func (r *GormExpenseRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.ExpenseRecord, error) {
	var model models.ExpenseRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLedger lists the expense records of a ledger
func (r *GormExpenseRecordRepository) FindByLedger(ctx context.Context, ledgerID uuid.UUID, filter ledger.ExpenseFilter) ([]ledger.ExpenseRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseRecordModel{}).
		Where("ledger_id = ?", ledgerID)
	if filter.Category != nil {
		query = query.Where("category = ?", string(*filter.Category))
	}
	if filter.IsPlanned != nil {
		query = query.Where("is_planned = ?", *filter.IsPlanned)
	}
	query = applyLedgerFilter(query, filter.Filter)

	var rows []models.ExpenseRecordModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]ledger.ExpenseRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Save creates or updates an expense record
func (r *GormExpenseRecordRepository) Save(ctx context.Context, record *ledger.ExpenseRecord) error {
	return r.db.WithContext(ctx).Save(models.ExpenseRecordModelFromDomain(record)).Error
}

// SaveWithLock updates an existing record only if its stored version still matches, then bumps the version
func (r *GormExpenseRecordRepository) SaveWithLock(ctx context.Context, record *ledger.ExpenseRecord) error {
	model := models.ExpenseRecordModelFromDomain(record)
	model.Version = record.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateVersioned(tx, &models.ExpenseRecordModel{}, model, record.ID, record.Version)
	})
	if err != nil {
		return err
	}
	record.Version = model.Version
	return nil
}

// Delete removes an expense record
func (r *GormExpenseRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ExpenseRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByLedger counts the expense records of a ledger
func (r *GormExpenseRecordRepository) CountByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ExpenseRecordModel{}).
		Where("ledger_id = ?", ledgerID).
		Count(&count).Error
	return count, err
}

// updateVersioned writes every column of model where the row still has the expected version.
// A missing row is shared.ErrNotFound; a version mismatch is shared.ErrConcurrencyConflict.
func updateVersioned(tx *gorm.DB, table any, model any, id uuid.UUID, expectedVersion int) error {
	var current struct{ Version int }
	if err := tx.Model(table).Select("version").Where("id = ?", id).Take(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	if current.Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}

	result := tx.Model(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Select("*").Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ ledger.ExpenseRecordRepository = (*GormExpenseRecordRepository)(nil)
