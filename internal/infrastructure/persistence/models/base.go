package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel extends BaseModel with a version for optimistic locking
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// LedgerAggregateModel holds the columns of a ledger-owned aggregate
type LedgerAggregateModel struct {
	AggregateModel
	LedgerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainLedgerAggregateRoot populates the model from a domain aggregate root
func (m *LedgerAggregateModel) FromDomainLedgerAggregateRoot(a shared.LedgerAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
	m.LedgerID = a.LedgerID
}

// ToDomainLedgerAggregateRoot converts the model back to a domain aggregate root
func (m *LedgerAggregateModel) ToDomainLedgerAggregateRoot() shared.LedgerAggregateRoot {
	return shared.LedgerAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		LedgerID: m.LedgerID,
	}
}
