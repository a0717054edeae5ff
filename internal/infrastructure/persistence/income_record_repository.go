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

// GormIncomeRecordRepository implements ledger.IncomeRecordRepository using GORM
type GormIncomeRecordRepository struct {
	db *gorm.DB
}

// NewGormIncomeRecordRepository creates a new GormIncomeRecordRepository
func NewGormIncomeRecordRepository(db *gorm.DB) *GormIncomeRecordRepository {
	return &GormIncomeRecordRepository{db: db}
}

// FindByID finds an income record by its ID
func (r *GormIncomeRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.IncomeRecord, error) {
	var model models.IncomeRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLedger lists the income records of a ledger
func (r *GormIncomeRecordRepository) FindByLedger(ctx context.Context, ledgerID uuid.UUID, filter ledger.IncomeFilter) ([]ledger.IncomeRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.IncomeRecordModel{}).
		Where("ledger_id = ?", ledgerID)
	if filter.Category != nil {
		query = query.Where("category = ?", string(*filter.Category))
	}
	query = applyLedgerFilter(query, filter.Filter)

	var rows []models.IncomeRecordModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]ledger.IncomeRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Save creates or updates an income record
func (r *GormIncomeRecordRepository) Save(ctx context.Context, record *ledger.IncomeRecord) error {
	return r.db.WithContext(ctx).Save(models.IncomeRecordModelFromDomain(record)).Error
}

// SaveWithLock updates an existing record only if its stored version still matches, then bumps the version
func (r *GormIncomeRecordRepository) SaveWithLock(ctx context.Context, record *ledger.IncomeRecord) error {
	model := models.IncomeRecordModelFromDomain(record)
	model.Version = record.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateVersioned(tx, &models.IncomeRecordModel{}, model, record.ID, record.Version)
	})
	if err != nil {
		return err
	}
	record.Version = model.Version
	return nil
}

// Delete removes an income record
func (r *GormIncomeRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.IncomeRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByLedger counts the income records of a ledger
func (r *GormIncomeRecordRepository) CountByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.IncomeRecordModel{}).
		Where("ledger_id = ?", ledgerID).
		Count(&count).Error
	return count, err
}

var _ ledger.IncomeRecordRepository = (*GormIncomeRecordRepository)(nil)
