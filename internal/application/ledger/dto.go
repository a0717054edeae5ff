package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ExpenseInput is the manual-entry payload for a new expense record
type ExpenseInput struct {
	Category     string           `json:"category" validate:"required"`
	Amount       int64            `json:"amount" validate:"gte=0"`
	Details      string           `json:"details" validate:"max=500"`
	Notes        string           `json:"notes"`
	IsPlanned    bool             `json:"is_planned"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
}

// IncomeInput is the manual-entry payload for a new income record
type IncomeInput struct {
	Category     string           `json:"category" validate:"required"`
	Amount       int64            `json:"amount" validate:"gte=0"`
	Details      string           `json:"details" validate:"max=500"`
	Notes        string           `json:"notes"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
}

// ExpensePatch updates an expense record; nil fields are left untouched.
// ClearDiscount removes a committed discount rate.
type ExpensePatch struct {
	Category      *string          `json:"category" validate:"omitnil,min=1"`
	Amount        *int64           `json:"amount" validate:"omitnil,gte=0"`
	Details       *string          `json:"details" validate:"omitnil,max=500"`
	Notes         *string          `json:"notes"`
	IsPlanned     *bool            `json:"is_planned"`
	DiscountRate  *decimal.Decimal `json:"discount_rate"`
	ClearDiscount bool             `json:"clear_discount"`
}

// IncomePatch updates an income record; nil fields are left untouched
type IncomePatch struct {
	Category      *string          `json:"category" validate:"omitnil,min=1"`
	Amount        *int64           `json:"amount" validate:"omitnil,gte=0"`
	Details       *string          `json:"details" validate:"omitnil,max=500"`
	Notes         *string          `json:"notes"`
	DiscountRate  *decimal.Decimal `json:"discount_rate"`
	ClearDiscount bool             `json:"clear_discount"`
}

// RecordResponse represents an expense or income record in API responses
type RecordResponse struct {
	ID           uuid.UUID        `json:"id"`
	LedgerID     uuid.UUID        `json:"ledger_id"`
	Partition    ledger.Partition `json:"partition"`
	Category     string           `json:"category"`
	CategoryName string           `json:"category_name"`
	Amount       int64            `json:"amount"`
	Details      string           `json:"details"`
	Notes        string           `json:"notes,omitempty"`
	IsPlanned    *bool            `json:"is_planned,omitempty"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
	Version      int              `json:"version"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// SnapshotResponse is the full three-view ledger content
type SnapshotResponse struct {
	LedgerID      uuid.UUID        `json:"ledger_id"`
	Planned       []RecordResponse `json:"planned"`
	Executed      []RecordResponse `json:"executed"`
	Income        []RecordResponse `json:"income"`
	PlannedTotal  int64            `json:"planned_total"`
	ExecutedTotal int64            `json:"executed_total"`
	IncomeTotal   int64            `json:"income_total"`
}

// ItemError reports one failed item of a batch
type ItemError struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// BatchResult aggregates the outcome of a batched operation
type BatchResult struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// DiscountRequest selects the records, rate and derivation mode of a discount
type DiscountRequest struct {
	Scope ledger.Scope        `json:"scope"`
	Rate  decimal.Decimal     `json:"rate"`
	Mode  ledger.DiscountMode `json:"mode"`
}

// DiscountResult reports a discount apply or restore
type DiscountResult struct {
	BatchResult
	Scope   ledger.Scope        `json:"scope,omitempty"`
	Rate    *decimal.Decimal    `json:"rate,omitempty"`
	Mode    ledger.DiscountMode `json:"mode,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// DiscountSnapshotInfo describes the captured pre-discount amounts of a ledger
type DiscountSnapshotInfo struct {
	LedgerID   uuid.UUID    `json:"ledger_id"`
	Scope      ledger.Scope `json:"scope"`
	Records    int          `json:"records"`
	CapturedAt time.Time    `json:"captured_at"`
}

func toRecordResponse(e ledger.Entry) RecordResponse {
	rec := e.Base()
	resp := RecordResponse{
		ID:           rec.ID,
		LedgerID:     rec.LedgerID,
		Partition:    e.Partition(),
		Category:     rec.Category.String(),
		CategoryName: rec.Category.DisplayName(),
		Amount:       rec.Amount,
		Details:      rec.Details,
		Notes:        rec.Notes,
		DiscountRate: rec.DiscountRate,
		Version:      rec.Version,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
	if exp, ok := e.(*ledger.ExpenseRecord); ok {
		planned := exp.IsPlanned
		resp.IsPlanned = &planned
	}
	return resp
}

func toSnapshotResponse(s *ledger.Snapshot) *SnapshotResponse {
	resp := &SnapshotResponse{
		LedgerID: s.LedgerID,
		Planned:  make([]RecordResponse, 0),
		Executed: make([]RecordResponse, 0),
		Income:   make([]RecordResponse, 0),
	}
	for _, e := range s.Entries() {
		r := toRecordResponse(e)
		switch e.Partition() {
		case ledger.PartitionPlanned:
			resp.Planned = append(resp.Planned, r)
			resp.PlannedTotal += r.Amount
		case ledger.PartitionExecuted:
			resp.Executed = append(resp.Executed, r)
			resp.ExecutedTotal += r.Amount
		case ledger.PartitionIncome:
			resp.Income = append(resp.Income, r)
			resp.IncomeTotal += r.Amount
		}
	}
	return resp
}
