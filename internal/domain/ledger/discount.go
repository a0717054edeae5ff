package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// maxRatePlaces matches the NUMERIC(5,2) rate column
const maxRatePlaces = 2

// Discount returns floor(amount * (100 - rate) / 100)
func Discount(amount int64, rate decimal.Decimal) int64 {
	if amount <= 0 {
		return amount
	}
	return decimal.NewFromInt(amount).
		Mul(hundred.Sub(rate)).
		Div(hundred).
		Floor().
		IntPart()
}

// ValidateRate checks that a discount rate lies within [0, 100] with at most two decimal places
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return NewValidationError("Discount rate must be between 0 and 100")
	}
	if !rate.Equal(rate.Truncate(maxRatePlaces)) {
		return NewValidationError(fmt.Sprintf("Discount rate allows at most %d decimal places", maxRatePlaces))
	}
	return nil
}

// Scope selects the collections a discount operation touches
type Scope string

const (
	ScopePlanned  Scope = "planned"
	ScopeExecuted Scope = "executed"
	ScopeIncome   Scope = "income"
	ScopeAll      Scope = "all"
)

// IsValid checks if the scope is known
func (s Scope) IsValid() bool {
	switch s {
	case ScopePlanned, ScopeExecuted, ScopeIncome, ScopeAll:
		return true
	}
	return false
}

// Includes reports whether entries of partition p fall under the scope
func (s Scope) Includes(p Partition) bool {
	if s == ScopeAll {
		return true
	}
	return string(s) == string(p)
}

// Contains is the view predicate for a scope
func (s Scope) Contains(e Entry) bool {
	return s.Includes(e.Partition())
}

// DiscountMode selects which amount a discount is derived from
type DiscountMode string

const (
	// DiscountModeCompound discounts the current stored amount
	DiscountModeCompound DiscountMode = "compound"
	// DiscountModeFromSnapshot discounts the amount captured in the snapshot
	DiscountModeFromSnapshot DiscountMode = "from_snapshot"
)

// IsValid checks if the mode is known
func (m DiscountMode) IsValid() bool {
	return m == DiscountModeCompound || m == DiscountModeFromSnapshot
}

// DiscountSnapshot holds the pre-discount amount of every record it covers
type DiscountSnapshot struct {
	LedgerID   uuid.UUID
	Scope      Scope
	CapturedAt time.Time
	amounts    map[uuid.UUID]int64
}

// CaptureDiscountSnapshot records the current amount of every entry within scope
func CaptureDiscountSnapshot(s *Snapshot, scope Scope) *DiscountSnapshot {
	snap := &DiscountSnapshot{
		LedgerID:   s.LedgerID,
		Scope:      scope,
		CapturedAt: time.Now(),
		amounts:    make(map[uuid.UUID]int64),
	}
	for _, e := range s.Filter(scope.Contains) {
		snap.amounts[e.GetID()] = e.Base().Amount
	}
	return snap
}

// Original returns the captured amount for id
func (d *DiscountSnapshot) Original(id uuid.UUID) (int64, bool) {
	amount, ok := d.amounts[id]
	return amount, ok
}

// Len returns the number of captured records
func (d *DiscountSnapshot) Len() int {
	return len(d.amounts)
}

// IDs returns the captured record ids
func (d *DiscountSnapshot) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(d.amounts))
	for id := range d.amounts {
		ids = append(ids, id)
	}
	return ids
}

// EffectiveRates derives the active discount rate per category.
// The first executed expense or income record of a category decides; missing or null is 0.
// Exempt categories are always 0.
func EffectiveRates(s *Snapshot) map[Category]decimal.Decimal {
	rates := make(map[Category]decimal.Decimal, len(allCategories))
	for _, c := range allCategories {
		rates[c] = decimal.Zero
	}

	seen := make(map[Category]bool)
	for _, e := range s.entries {
		p := e.Partition()
		if p != PartitionExecuted && p != PartitionIncome {
			continue
		}
		rec := e.Base()
		if seen[rec.Category] {
			continue
		}
		seen[rec.Category] = true
		if rec.Category.IsDiscountExempt() || rec.DiscountRate == nil {
			continue
		}
		rates[rec.Category] = *rec.DiscountRate
	}
	return rates
}

func cloneRate(rate *decimal.Decimal) *decimal.Decimal {
	if rate == nil {
		return nil
	}
	v := *rate
	return &v
}
