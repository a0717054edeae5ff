package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/retreat/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of concurrent mutations per batch
const DefaultBatchSize = 5

// LedgerService exposes the ledger mutation contract, bulk operations and the discount engine
type LedgerService struct {
	expenseRepo ledger.ExpenseRecordRepository
	incomeRepo  ledger.IncomeRecordRepository
	view        *ViewCache
	guard       *OperationGuard
	validate    *validator.Validate
	batchSize   int
	metrics     *telemetry.LedgerMetrics
	logger      *zap.Logger

	discountMu sync.Mutex
	discounts  map[uuid.UUID]*ledger.DiscountSnapshot
}

// Option configures a LedgerService
type Option func(*LedgerService)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *LedgerService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBatchSize sets the number of concurrent mutations per batch
func WithBatchSize(size int) Option {
	return func(s *LedgerService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithMetrics records batch operations on the given instruments
func WithMetrics(metrics *telemetry.LedgerMetrics) Option {
	return func(s *LedgerService) {
		s.metrics = metrics
	}
}

// WithOperationGuard shares a guard with other services touching the same ledgers
func WithOperationGuard(guard *OperationGuard) Option {
	return func(s *LedgerService) {
		if guard != nil {
			s.guard = guard
		}
	}
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	expenseRepo ledger.ExpenseRecordRepository,
	incomeRepo ledger.IncomeRecordRepository,
	opts ...Option,
) *LedgerService {
	s := &LedgerService{
		expenseRepo: expenseRepo,
		incomeRepo:  incomeRepo,
		view:        NewViewCache(),
		guard:       NewOperationGuard(),
		validate:    validator.New(),
		batchSize:   DefaultBatchSize,
		logger:      zap.NewNop(),
		discounts:   make(map[uuid.UUID]*ledger.DiscountSnapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Guard returns the operation guard used by the service
func (s *LedgerService) Guard() *OperationGuard {
	return s.guard
}

// ===================== Expense Record Operations =====================

// CreateExpense validates a manual or imported entry and appends it to the planned or executed view
func (s *LedgerService) CreateExpense(ctx context.Context, ledgerID uuid.UUID, input ExpenseInput) (*RecordResponse, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	record, err := ledger.NewExpenseRecord(ledgerID, ledger.Category(input.Category), input.Amount, input.Details, input.Notes, input.IsPlanned)
	if err != nil {
		return nil, err
	}
	if input.DiscountRate != nil {
		if err := record.SetDiscountRate(input.DiscountRate); err != nil {
			return nil, err
		}
	}

	if err := s.expenseRepo.Save(ctx, record); err != nil {
		s.logger.Error("failed to save expense record",
			zap.String("ledger_id", ledgerID.String()),
			zap.Error(err))
		return nil, ledger.NewPersistenceError("create expense", err)
	}

	s.view.Upsert(ledgerID, record)
	resp := toRecordResponse(record)
	return &resp, nil
}

// UpdateExpense applies a patch. Flipping is_planned moves the record to the other view.
func (s *LedgerService) UpdateExpense(ctx context.Context, id uuid.UUID, patch ExpensePatch) (*RecordResponse, error) {
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}

	record, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(&record.Record, patch.Category, patch.Amount, patch.Details, patch.Notes); err != nil {
		return nil, err
	}
	if err := applyDiscountPatch(&record.Record, patch.DiscountRate, patch.ClearDiscount); err != nil {
		return nil, err
	}
	if patch.IsPlanned != nil {
		record.SetPlanned(*patch.IsPlanned)
	}

	if err := s.expenseRepo.SaveWithLock(ctx, record); err != nil {
		return nil, ledger.NewPersistenceError("update expense", err)
	}

	s.view.Upsert(record.LedgerID, record)
	resp := toRecordResponse(record)
	return &resp, nil
}

// DeleteExpense removes an expense record. A record already gone upstream counts as deleted.
func (s *LedgerService) DeleteExpense(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.deleteRecord(ctx, id, s.expenseRepo.Delete)
}

// ===================== Income Record Operations =====================

// CreateIncome validates and appends an income record
func (s *LedgerService) CreateIncome(ctx context.Context, ledgerID uuid.UUID, input IncomeInput) (*RecordResponse, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	record, err := ledger.NewIncomeRecord(ledgerID, ledger.Category(input.Category), input.Amount, input.Details, input.Notes)
	if err != nil {
		return nil, err
	}
	if input.DiscountRate != nil {
		if err := record.SetDiscountRate(input.DiscountRate); err != nil {
			return nil, err
		}
	}

	if err := s.incomeRepo.Save(ctx, record); err != nil {
		s.logger.Error("failed to save income record",
			zap.String("ledger_id", ledgerID.String()),
			zap.Error(err))
		return nil, ledger.NewPersistenceError("create income", err)
	}

	s.view.Upsert(ledgerID, record)
	resp := toRecordResponse(record)
	return &resp, nil
}

// UpdateIncome applies a patch to an income record
func (s *LedgerService) UpdateIncome(ctx context.Context, id uuid.UUID, patch IncomePatch) (*RecordResponse, error) {
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}

	record, err := s.incomeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyPatch(&record.Record, patch.Category, patch.Amount, patch.Details, patch.Notes); err != nil {
		return nil, err
	}
	if err := applyDiscountPatch(&record.Record, patch.DiscountRate, patch.ClearDiscount); err != nil {
		return nil, err
	}

	if err := s.incomeRepo.SaveWithLock(ctx, record); err != nil {
		return nil, ledger.NewPersistenceError("update income", err)
	}

	s.view.Upsert(record.LedgerID, record)
	resp := toRecordResponse(record)
	return &resp, nil
}

// DeleteIncome removes an income record. A record already gone upstream counts as deleted.
func (s *LedgerService) DeleteIncome(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.deleteRecord(ctx, id, s.incomeRepo.Delete)
}

func (s *LedgerService) deleteRecord(ctx context.Context, id uuid.UUID, del func(context.Context, uuid.UUID) error) (bool, error) {
	err := del(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, ledger.NewPersistenceError("delete record", err)
	}
	if err != nil {
		s.logger.Debug("record already deleted upstream",
			zap.String("record_id", id.String()),
			zap.String("code", ledger.CodeAlreadyDeleted))
	}
	s.view.Remove(id)
	return true, nil
}

// ===================== Snapshot Operations =====================

// RefetchLedger reloads the ledger from the store and replaces the cached view
func (s *LedgerService) RefetchLedger(ctx context.Context, ledgerID uuid.UUID) (*SnapshotResponse, error) {
	snap, err := s.Snapshot(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return toSnapshotResponse(snap), nil
}

// View returns the cached ledger view, refetching on a miss
func (s *LedgerService) View(ctx context.Context, ledgerID uuid.UUID) (*SnapshotResponse, error) {
	if snap, ok := s.view.Get(ledgerID); ok {
		return toSnapshotResponse(snap), nil
	}
	return s.RefetchLedger(ctx, ledgerID)
}

// Snapshot loads the authoritative ledger content as a domain snapshot
func (s *LedgerService) Snapshot(ctx context.Context, ledgerID uuid.UUID) (*ledger.Snapshot, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "refetch")
	defer span.End()
	telemetry.SetAttribute(span, "ledger_id", ledgerID.String())

	expenses, err := s.expenseRepo.FindByLedger(ctx, ledgerID, ledger.ExpenseFilter{Filter: shared.DefaultFilter()})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, ledger.NewPersistenceError("load expenses", err)
	}
	income, err := s.incomeRepo.FindByLedger(ctx, ledgerID, ledger.IncomeFilter{Filter: shared.DefaultFilter()})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, ledger.NewPersistenceError("load income", err)
	}

	snap := ledger.NewSnapshot(ledgerID, expenses, income)
	s.view.Put(snap)
	return snap, nil
}

// saveEntry persists a mutated entry through the repository of its kind
func (s *LedgerService) saveEntry(ctx context.Context, e ledger.Entry) error {
	switch rec := e.(type) {
	case *ledger.ExpenseRecord:
		return s.expenseRepo.SaveWithLock(ctx, rec)
	case *ledger.IncomeRecord:
		return s.incomeRepo.SaveWithLock(ctx, rec)
	default:
		return fmt.Errorf("unsupported ledger entry %T", e)
	}
}

// deleteEntry removes an entry through the repository of its kind
func (s *LedgerService) deleteEntry(ctx context.Context, e ledger.Entry) error {
	switch e.(type) {
	case *ledger.ExpenseRecord:
		return s.expenseRepo.Delete(ctx, e.GetID())
	case *ledger.IncomeRecord:
		return s.incomeRepo.Delete(ctx, e.GetID())
	default:
		return fmt.Errorf("unsupported ledger entry %T", e)
	}
}

func (s *LedgerService) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ledger.NewValidationError(fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
		}
		return ledger.NewValidationError(err.Error())
	}
	return nil
}

func applyPatch(rec *ledger.Record, category *string, amount *int64, details, notes *string) error {
	newCategory := rec.Category
	if category != nil {
		newCategory = ledger.Category(*category)
	}
	newAmount := rec.Amount
	if amount != nil {
		newAmount = *amount
	}
	newDetails := rec.Details
	if details != nil {
		newDetails = *details
	}
	newNotes := rec.Notes
	if notes != nil {
		newNotes = *notes
	}
	return rec.Update(newCategory, newAmount, newDetails, newNotes)
}

func applyDiscountPatch(rec *ledger.Record, rate *decimal.Decimal, clearRate bool) error {
	if clearRate {
		return rec.SetDiscountRate(nil)
	}
	if rate != nil {
		return rec.SetDiscountRate(rate)
	}
	return nil
}
