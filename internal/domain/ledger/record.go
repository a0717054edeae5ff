package ledger

import (
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const maxDetailsLength = 500

// Record holds the fields shared by expense and income records.
// Amount is in thousand-currency units and never negative.
type Record struct {
	shared.LedgerAggregateRoot
	Category     Category         `json:"category"`
	Amount       int64            `json:"amount"`
	Details      string           `json:"details"`
	Notes        string           `json:"notes"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
}

func newRecord(ledgerID uuid.UUID, category Category, amount int64, details, notes string) (Record, error) {
	if ledgerID == uuid.Nil {
		return Record{}, NewValidationError("Ledger ID cannot be empty")
	}
	if err := validateFields(category, amount, details); err != nil {
		return Record{}, err
	}
	return Record{
		LedgerAggregateRoot: shared.NewLedgerAggregateRoot(ledgerID),
		Category:            category,
		Amount:              amount,
		Details:             details,
		Notes:               notes,
	}, nil
}

func validateFields(category Category, amount int64, details string) error {
	if category == "" {
		return NewValidationError("Category is required")
	}
	if !category.IsValid() {
		return NewValidationError("Category is not valid")
	}
	if amount < 0 {
		return NewValidationError("Amount cannot be negative")
	}
	if utf8.RuneCountInString(details) > maxDetailsLength {
		return NewValidationError("Details cannot exceed 500 characters")
	}
	return nil
}

// Update replaces the editable fields
func (r *Record) Update(category Category, amount int64, details, notes string) error {
	if err := validateFields(category, amount, details); err != nil {
		return err
	}
	r.Category = category
	r.Amount = amount
	r.Details = details
	r.Notes = notes
	r.Touch()
	return nil
}

// SetDiscountRate stores the committed discount rate; nil clears it
func (r *Record) SetDiscountRate(rate *decimal.Decimal) error {
	if rate != nil {
		if err := ValidateRate(*rate); err != nil {
			return err
		}
		v := *rate
		rate = &v
	}
	r.DiscountRate = rate
	r.Touch()
	return nil
}

// ApplyDiscount discounts the current amount and records the rate
func (r *Record) ApplyDiscount(rate decimal.Decimal) error {
	if err := ValidateRate(rate); err != nil {
		return err
	}
	r.Amount = Discount(r.Amount, rate)
	r.DiscountRate = &rate
	r.Touch()
	return nil
}

// ApplyDiscountFrom discounts a given original amount instead of the current one
func (r *Record) ApplyDiscountFrom(original int64, rate decimal.Decimal) error {
	if err := ValidateRate(rate); err != nil {
		return err
	}
	if original < 0 {
		return NewValidationError("Amount cannot be negative")
	}
	r.Amount = Discount(original, rate)
	r.DiscountRate = &rate
	r.Touch()
	return nil
}

// RestoreAmount writes back an original amount and clears the discount rate
func (r *Record) RestoreAmount(original int64) {
	r.Amount = original
	r.DiscountRate = nil
	r.Touch()
}

// Source returns the source label parsed from the details prefix, if any
func (r *Record) Source() (string, bool) {
	return ParseSourceLabel(r.Details)
}

// ExpenseRecord is a planned or executed cost of a reservation
type ExpenseRecord struct {
	Record
	IsPlanned bool `json:"is_planned"`
}

// NewExpenseRecord creates a new expense record
func NewExpenseRecord(ledgerID uuid.UUID, category Category, amount int64, details, notes string, isPlanned bool) (*ExpenseRecord, error) {
	rec, err := newRecord(ledgerID, category, amount, details, notes)
	if err != nil {
		return nil, err
	}
	return &ExpenseRecord{Record: rec, IsPlanned: isPlanned}, nil
}

// SetPlanned moves the record to the planned or executed partition
func (e *ExpenseRecord) SetPlanned(planned bool) {
	if e.IsPlanned == planned {
		return
	}
	e.IsPlanned = planned
	e.Touch()
}

// Partition returns the partition that currently holds the record
func (e *ExpenseRecord) Partition() Partition {
	if e.IsPlanned {
		return PartitionPlanned
	}
	return PartitionExecuted
}

// Base returns the shared record fields
func (e *ExpenseRecord) Base() *Record {
	return &e.Record
}

// DedupKey returns the import identity of the record, if its details carry a source label
func (e *ExpenseRecord) DedupKey() (DedupKey, bool) {
	label, ok := e.Source()
	if !ok {
		return DedupKey{}, false
	}
	return ExpenseKey(label, e.Category, e.IsPlanned), true
}

// IncomeRecord is revenue attributed to a reservation. It has no planned/executed split.
type IncomeRecord struct {
	Record
}

// NewIncomeRecord creates a new income record
func NewIncomeRecord(ledgerID uuid.UUID, category Category, amount int64, details, notes string) (*IncomeRecord, error) {
	rec, err := newRecord(ledgerID, category, amount, details, notes)
	if err != nil {
		return nil, err
	}
	return &IncomeRecord{Record: rec}, nil
}

// Partition always returns PartitionIncome
func (i *IncomeRecord) Partition() Partition {
	return PartitionIncome
}

// Base returns the shared record fields
func (i *IncomeRecord) Base() *Record {
	return &i.Record
}

// DedupKey returns the import identity of the record, if its details carry a source label
func (i *IncomeRecord) DedupKey() (DedupKey, bool) {
	label, ok := i.Source()
	if !ok {
		return DedupKey{}, false
	}
	return IncomeKey(label, i.Category), true
}
