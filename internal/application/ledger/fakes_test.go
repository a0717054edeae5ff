package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// memoryStore keeps records in insertion order, like the created_at ordering of the real store
type memoryStore[T any] struct {
	mu        sync.Mutex
	order     []uuid.UUID
	records   map[uuid.UUID]T
	ledgerOf  func(T) uuid.UUID
	failOn    map[uuid.UUID]error
	saveCalls int
}

func newMemoryStore[T any](ledgerOf func(T) uuid.UUID) *memoryStore[T] {
	return &memoryStore[T]{
		records:  make(map[uuid.UUID]T),
		ledgerOf: ledgerOf,
		failOn:   make(map[uuid.UUID]error),
	}
}

func (m *memoryStore[T]) find(id uuid.UUID) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		var zero T
		return zero, shared.ErrNotFound
	}
	return rec, nil
}

func (m *memoryStore[T]) list(ledgerID uuid.UUID) []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, 0)
	for _, id := range m.order {
		rec, ok := m.records[id]
		if ok && m.ledgerOf(rec) == ledgerID {
			out = append(out, rec)
		}
	}
	return out
}

func (m *memoryStore[T]) save(id uuid.UUID, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if err, ok := m.failOn[id]; ok {
		return err
	}
	if _, ok := m.records[id]; !ok {
		m.order = append(m.order, id)
	}
	m.records[id] = rec
	return nil
}

func (m *memoryStore[T]) delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failOn[id]; ok {
		return err
	}
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memoryStore[T]) count(ledgerID uuid.UUID) int64 {
	return int64(len(m.list(ledgerID)))
}

type memoryExpenseRepo struct {
	*memoryStore[ledger.ExpenseRecord]
}

func newMemoryExpenseRepo() *memoryExpenseRepo {
	return &memoryExpenseRepo{newMemoryStore(func(r ledger.ExpenseRecord) uuid.UUID { return r.LedgerID })}
}

func (r *memoryExpenseRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.ExpenseRecord, error) {
	rec, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *memoryExpenseRepo) FindByLedger(_ context.Context, ledgerID uuid.UUID, _ ledger.ExpenseFilter) ([]ledger.ExpenseRecord, error) {
	return r.list(ledgerID), nil
}

func (r *memoryExpenseRepo) Save(_ context.Context, rec *ledger.ExpenseRecord) error {
	return r.save(rec.ID, *rec)
}

func (r *memoryExpenseRepo) SaveWithLock(_ context.Context, rec *ledger.ExpenseRecord) error {
	return r.save(rec.ID, *rec)
}

func (r *memoryExpenseRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.delete(id)
}

func (r *memoryExpenseRepo) CountByLedger(_ context.Context, ledgerID uuid.UUID) (int64, error) {
	return r.count(ledgerID), nil
}

type memoryIncomeRepo struct {
	*memoryStore[ledger.IncomeRecord]
}

func newMemoryIncomeRepo() *memoryIncomeRepo {
	return &memoryIncomeRepo{newMemoryStore(func(r ledger.IncomeRecord) uuid.UUID { return r.LedgerID })}
}

func (r *memoryIncomeRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.IncomeRecord, error) {
	rec, err := r.find(id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *memoryIncomeRepo) FindByLedger(_ context.Context, ledgerID uuid.UUID, _ ledger.IncomeFilter) ([]ledger.IncomeRecord, error) {
	return r.list(ledgerID), nil
}

func (r *memoryIncomeRepo) Save(_ context.Context, rec *ledger.IncomeRecord) error {
	return r.save(rec.ID, *rec)
}

func (r *memoryIncomeRepo) SaveWithLock(_ context.Context, rec *ledger.IncomeRecord) error {
	return r.save(rec.ID, *rec)
}

func (r *memoryIncomeRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.delete(id)
}

func (r *memoryIncomeRepo) CountByLedger(_ context.Context, ledgerID uuid.UUID) (int64, error) {
	return r.count(ledgerID), nil
}

// MockExpenseRecordRepository is a mock implementation of ExpenseRecordRepository
type MockExpenseRecordRepository struct {
	mock.Mock
}

func (m *MockExpenseRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.ExpenseRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ExpenseRecord), args.Error(1)
}

func (m *MockExpenseRecordRepository) FindByLedger(ctx context.Context, ledgerID uuid.UUID, filter ledger.ExpenseFilter) ([]ledger.ExpenseRecord, error) {
	args := m.Called(ctx, ledgerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.ExpenseRecord), args.Error(1)
}

func (m *MockExpenseRecordRepository) Save(ctx context.Context, record *ledger.ExpenseRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockExpenseRecordRepository) SaveWithLock(ctx context.Context, record *ledger.ExpenseRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockExpenseRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExpenseRecordRepository) CountByLedger(ctx context.Context, ledgerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ledgerID)
	return args.Get(0).(int64), args.Error(1)
}
