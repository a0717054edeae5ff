package reconcile

import (
	"fmt"

	"github.com/google/uuid"
	ledgerapp "github.com/retreat/backend/internal/application/ledger"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Source names one import branch
type Source string

const (
	SourceLodging  Source = "lodging"
	SourceMeals    Source = "meals"
	SourcePrograms Source = "programs"
	SourceSupplies Source = "supplies"
	SourceOther    Source = "other"
)

// AllSources lists the branches of every import, in report order
var AllSources = []Source{SourceLodging, SourceMeals, SourcePrograms, SourceSupplies, SourceOther}

// Label is the details prefix written on records created from the source
func (s Source) Label() string {
	return s.Category().DisplayName()
}

// Category is the ledger category records of the source are filed under
func (s Source) Category() ledger.Category {
	switch s {
	case SourceLodging:
		return ledger.CategoryLodging
	case SourceMeals:
		return ledger.CategoryMeal
	case SourcePrograms:
		return ledger.CategoryProgram
	case SourceSupplies:
		return ledger.CategorySupply
	default:
		return ledger.CategoryOther
	}
}

// HasExpenses reports whether the source produces a planned/executed expense pair besides income
func (s Source) HasExpenses() bool {
	return s == SourceLodging || s == SourceMeals || s == SourceSupplies
}

// NeedsMeta reports whether the branch cannot be priced without reservation metadata
func (s Source) NeedsMeta() bool {
	return s == SourceLodging || s == SourcePrograms
}

// BranchStatus is the settled outcome of one branch
type BranchStatus string

const (
	BranchImported        BranchStatus = "imported"
	BranchNothingToImport BranchStatus = "nothing_to_import"
	BranchSkippedByPolicy BranchStatus = "skipped_by_policy"
	BranchFailed          BranchStatus = "failed"
)

// BranchResult reports what one branch did
type BranchResult struct {
	Source   Source          `json:"source"`
	Status   BranchStatus    `json:"status"`
	Category ledger.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Amount   int64           `json:"amount"`
	Created  int             `json:"created"`
	Skipped  int             `json:"skipped"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ImportRequest describes one import invocation.
// Session is owned by the caller and is reset at the start of the import.
// Existing and SeedFromStore pre-seed the session with keys of records already in the ledger.
type ImportRequest struct {
	LedgerID      uuid.UUID
	ReservationID uuid.UUID
	Session       ledger.DedupSession
	Existing      *ledger.Snapshot
	SeedFromStore bool
	CostBasis     pricing.CostBasis
}

// ImportReport is the settled result of every branch plus the refetched ledger
type ImportReport struct {
	LedgerID        uuid.UUID                   `json:"ledger_id"`
	ReservationID   uuid.UUID                   `json:"reservation_id"`
	CostBasis       pricing.CostBasis           `json:"cost_basis"`
	Branches        map[Source]BranchResult     `json:"branches"`
	Created         int                         `json:"created"`
	Skipped         int                         `json:"skipped"`
	Imported        int                         `json:"imported"`
	AlreadyImported int                         `json:"already_imported"`
	Total           int                         `json:"total"`
	Summary         string                      `json:"summary"`
	Ledger          *ledgerapp.SnapshotResponse `json:"ledger,omitempty"`
}

func (r *ImportReport) summarize() {
	r.Created, r.Skipped, r.Imported, r.AlreadyImported = 0, 0, 0, 0
	r.Total = len(r.Branches)
	for _, b := range r.Branches {
		r.Created += b.Created
		r.Skipped += b.Skipped
		if b.Status != BranchImported {
			continue
		}
		// a branch whose keys were all claimed already wrote nothing
		if b.Created > 0 {
			r.Imported++
		} else {
			r.AlreadyImported++
		}
	}
	r.Summary = fmt.Sprintf("imported %d of %d categories", r.Imported, r.Total)
	if r.AlreadyImported > 0 {
		r.Summary += fmt.Sprintf(" (%d already imported)", r.AlreadyImported)
	}
}

// Failed returns the branches that did not settle successfully
func (r *ImportReport) Failed() []BranchResult {
	out := make([]BranchResult, 0)
	for _, s := range AllSources {
		if b, ok := r.Branches[s]; ok && b.Status == BranchFailed {
			out = append(out, b)
		}
	}
	return out
}
