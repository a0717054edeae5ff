package dto

import (
	"github.com/shopspring/decimal"
)

// DiscountRequest is the body of POST /ledgers/:ledger_id/discount
type DiscountRequest struct {
	Scope string          `json:"scope" binding:"required,oneof=planned executed income all"`
	Rate  decimal.Decimal `json:"rate"`
	Mode  string          `json:"mode" binding:"omitempty,oneof=compound from_snapshot"`
}

// DiscountSnapshotRequest is the body of POST /ledgers/:ledger_id/discount/snapshot
type DiscountSnapshotRequest struct {
	Scope   string `json:"scope" binding:"omitempty,oneof=planned executed income all"`
	Replace bool   `json:"replace"`
}

// ImportRequest is the body of POST /ledgers/:ledger_id/import.
// SeedFromStore defaults to true so records already in the ledger are never duplicated.
type ImportRequest struct {
	ReservationID string `json:"reservation_id" binding:"required,uuid"`
	CostBasis     string `json:"cost_basis" binding:"omitempty,oneof=retail ingredient"`
	SeedFromStore *bool  `json:"seed_from_store"`
}

// DeleteResult reports whether a single delete removed a record
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// LodgingSummary is the per-day, per-room-type lodging breakdown of a reservation
type LodgingSummary struct {
	ReservationID string          `json:"reservation_id"`
	Groups        any             `json:"groups"`
	Total         decimal.Decimal `json:"total"`
	TotalThousand int64           `json:"total_thousand"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Dedup    string `json:"dedup"`
}
