package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	ledgerapp "github.com/retreat/backend/internal/application/ledger"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/reservation"
)

var errUpstream = errors.New("upstream unavailable")

type fakeSources struct {
	meta     *reservation.Meta
	metaErr  error
	lodging  []reservation.LodgingAllocation
	meals    []reservation.MealAllocation
	programs []reservation.ProgramAllocation
	supplies []reservation.ItemAllocation
	others   []reservation.ItemAllocation
	failing  map[Source]bool

	mu      sync.Mutex
	queried map[Source]int
}

func (f *fakeSources) hit(s Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queried == nil {
		f.queried = make(map[Source]int)
	}
	f.queried[s]++
	if f.failing[s] {
		return errUpstream
	}
	return nil
}

func (f *fakeSources) queries(s Source) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queried[s]
}

func (f *fakeSources) ReservationMeta(ctx context.Context, id uuid.UUID) (*reservation.Meta, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeSources) LodgingAllocations(ctx context.Context, id uuid.UUID) ([]reservation.LodgingAllocation, error) {
	if err := f.hit(SourceLodging); err != nil {
		return nil, err
	}
	return f.lodging, nil
}

func (f *fakeSources) MealAllocations(ctx context.Context, id uuid.UUID) ([]reservation.MealAllocation, error) {
	if err := f.hit(SourceMeals); err != nil {
		return nil, err
	}
	return f.meals, nil
}

func (f *fakeSources) ProgramAllocations(ctx context.Context, id uuid.UUID) ([]reservation.ProgramAllocation, error) {
	if err := f.hit(SourcePrograms); err != nil {
		return nil, err
	}
	out := make([]reservation.ProgramAllocation, len(f.programs))
	copy(out, f.programs)
	return out, nil
}

// itemSource serves one of the two item kinds from the shared fake
type itemSource struct {
	parent *fakeSources
	kind   Source
}

func (s itemSource) ItemAllocations(ctx context.Context, id uuid.UUID) ([]reservation.ItemAllocation, error) {
	if err := s.parent.hit(s.kind); err != nil {
		return nil, err
	}
	if s.kind == SourceSupplies {
		return s.parent.supplies, nil
	}
	return s.parent.others, nil
}

func (f *fakeSources) bundle() reservation.Sources {
	return reservation.Sources{
		Lodging:  f,
		Meals:    f,
		Programs: f,
		Supplies: itemSource{parent: f, kind: SourceSupplies},
		Others:   itemSource{parent: f, kind: SourceOther},
		Meta:     f,
	}
}

// fakeWriter records created entries in memory, standing in for the ledger service
type fakeWriter struct {
	mu        sync.Mutex
	expenses  []ledger.ExpenseRecord
	income    []ledger.IncomeRecord
	failOn    map[ledger.Category]bool
	refetches int
}

func (w *fakeWriter) CreateExpense(ctx context.Context, ledgerID uuid.UUID, in ledgerapp.ExpenseInput) (*ledgerapp.RecordResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn[ledger.Category(in.Category)] {
		return nil, ledger.NewPersistenceError("save expense", errors.New("write rejected"))
	}
	rec, err := ledger.NewExpenseRecord(ledgerID, ledger.Category(in.Category), in.Amount, in.Details, in.Notes, in.IsPlanned)
	if err != nil {
		return nil, err
	}
	w.expenses = append(w.expenses, *rec)
	return &ledgerapp.RecordResponse{ID: rec.ID, LedgerID: ledgerID, Amount: rec.Amount}, nil
}

func (w *fakeWriter) CreateIncome(ctx context.Context, ledgerID uuid.UUID, in ledgerapp.IncomeInput) (*ledgerapp.RecordResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn[ledger.Category(in.Category)] {
		return nil, ledger.NewPersistenceError("save income", errors.New("write rejected"))
	}
	rec, err := ledger.NewIncomeRecord(ledgerID, ledger.Category(in.Category), in.Amount, in.Details, in.Notes)
	if err != nil {
		return nil, err
	}
	w.income = append(w.income, *rec)
	return &ledgerapp.RecordResponse{ID: rec.ID, LedgerID: ledgerID, Amount: rec.Amount}, nil
}

func (w *fakeWriter) RefetchLedger(ctx context.Context, ledgerID uuid.UUID) (*ledgerapp.SnapshotResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refetches++
	return &ledgerapp.SnapshotResponse{LedgerID: ledgerID}, nil
}

func (w *fakeWriter) Snapshot(ctx context.Context, ledgerID uuid.UUID) (*ledger.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ledger.NewSnapshot(ledgerID, w.expenses, w.income), nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.expenses) + len(w.income)
}

func (w *fakeWriter) countCategory(cat ledger.Category) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, e := range w.expenses {
		if e.Category == cat {
			n++
		}
	}
	for _, i := range w.income {
		if i.Category == cat {
			n++
		}
	}
	return n
}

func (w *fakeWriter) incomeAmount(cat ledger.Category) (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, i := range w.income {
		if i.Category == cat {
			return i.Amount, true
		}
	}
	return 0, false
}
