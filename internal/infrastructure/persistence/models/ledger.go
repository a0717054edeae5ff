package models

import (
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// LedgerRecordModel holds the columns shared by expense and income records
type LedgerRecordModel struct {
	LedgerAggregateModel
	Category     string           `gorm:"type:varchar(30);not null;index"`
	Amount       int64            `gorm:"not null"`
	Details      string           `gorm:"type:varchar(500);not null;default:''"`
	Notes        string           `gorm:"type:text"`
	DiscountRate *decimal.Decimal `gorm:"type:decimal(5,2)"`
}

func (m *LedgerRecordModel) fromDomain(r *ledger.Record) {
	m.FromDomainLedgerAggregateRoot(r.LedgerAggregateRoot)
	m.Category = string(r.Category)
	m.Amount = r.Amount
	m.Details = r.Details
	m.Notes = r.Notes
	m.DiscountRate = r.DiscountRate
}

func (m *LedgerRecordModel) toDomain() ledger.Record {
	return ledger.Record{
		LedgerAggregateRoot: m.ToDomainLedgerAggregateRoot(),
		Category:            ledger.Category(m.Category),
		Amount:              m.Amount,
		Details:             m.Details,
		Notes:               m.Notes,
		DiscountRate:        m.DiscountRate,
	}
}

// ExpenseRecordModel is the persistence model for ledger.ExpenseRecord
type ExpenseRecordModel struct {
	LedgerRecordModel
	IsPlanned bool `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ExpenseRecordModel) TableName() string {
	return "ledger_expense_records"
}

// ToDomain converts the persistence model to a domain ExpenseRecord
func (m *ExpenseRecordModel) ToDomain() *ledger.ExpenseRecord {
	return &ledger.ExpenseRecord{
		Record:    m.toDomain(),
		IsPlanned: m.IsPlanned,
	}
}

// ExpenseRecordModelFromDomain creates a persistence model from a domain ExpenseRecord
func ExpenseRecordModelFromDomain(e *ledger.ExpenseRecord) *ExpenseRecordModel {
	m := &ExpenseRecordModel{IsPlanned: e.IsPlanned}
	m.fromDomain(&e.Record)
	return m
}

// IncomeRecordModel is the persistence model for ledger.IncomeRecord
type IncomeRecordModel struct {
	LedgerRecordModel
}

// TableName returns the table name for GORM
func (IncomeRecordModel) TableName() string {
	return "ledger_income_records"
}

// ToDomain converts the persistence model to a domain IncomeRecord
func (m *IncomeRecordModel) ToDomain() *ledger.IncomeRecord {
	return &ledger.IncomeRecord{Record: m.toDomain()}
}

// IncomeRecordModelFromDomain creates a persistence model from a domain IncomeRecord
func IncomeRecordModelFromDomain(i *ledger.IncomeRecord) *IncomeRecordModel {
	m := &IncomeRecordModel{}
	m.fromDomain(&i.Record)
	return m
}
