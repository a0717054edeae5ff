// Package reconcile imports reservation allocations into the ledger.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	ledgerapp "github.com/retreat/backend/internal/application/ledger"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/pricing"
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/retreat/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerWriter is the mutation contract the reconciler writes through
type LedgerWriter interface {
	CreateExpense(ctx context.Context, ledgerID uuid.UUID, input ledgerapp.ExpenseInput) (*ledgerapp.RecordResponse, error)
	CreateIncome(ctx context.Context, ledgerID uuid.UUID, input ledgerapp.IncomeInput) (*ledgerapp.RecordResponse, error)
	RefetchLedger(ctx context.Context, ledgerID uuid.UUID) (*ledgerapp.SnapshotResponse, error)
	Snapshot(ctx context.Context, ledgerID uuid.UUID) (*ledger.Snapshot, error)
}

// Reconciler turns per-source allocations into ledger records, once per logical entity per session
type Reconciler struct {
	sources reservation.Sources
	writer  LedgerWriter
	calc    *pricing.Calculator
	guard   *ledgerapp.OperationGuard
	metrics *telemetry.LedgerMetrics
	logger  *zap.Logger
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLogger sets the reconciler logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records branch and import outcomes
func WithMetrics(metrics *telemetry.LedgerMetrics) Option {
	return func(r *Reconciler) {
		r.metrics = metrics
	}
}

// WithOperationGuard shares the per-ledger guard with the ledger service
func WithOperationGuard(guard *ledgerapp.OperationGuard) Option {
	return func(r *Reconciler) {
		if guard != nil {
			r.guard = guard
		}
	}
}

// NewReconciler creates a new Reconciler
func NewReconciler(sources reservation.Sources, writer LedgerWriter, calc *pricing.Calculator, opts ...Option) *Reconciler {
	r := &Reconciler{
		sources: sources,
		writer:  writer,
		calc:    calc,
		guard:   ledgerapp.NewOperationGuard(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Import runs every branch concurrently and returns once all of them settled.
// A failing branch never cancels or blocks its siblings. The ledger is refetched at the end.
func (r *Reconciler) Import(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	release, err := r.guard.Acquire(req.LedgerID, "import")
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := telemetry.StartServiceSpan(ctx, "reconcile", "import",
		telemetry.WithAttribute("ledger_id", req.LedgerID.String()),
		telemetry.WithAttribute("reservation_id", req.ReservationID.String()),
		telemetry.WithAttribute("cost_basis", string(req.CostBasis)),
	)
	defer span.End()
	started := time.Now()
	log := r.logger.With(
		zap.String("ledger_id", req.LedgerID.String()),
		zap.String("reservation_id", req.ReservationID.String()),
	)

	if err := r.prepareSession(ctx, req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	meta, metaErr := r.sources.Meta.ReservationMeta(ctx, req.ReservationID)
	if errors.Is(metaErr, shared.ErrNotFound) {
		telemetry.RecordError(span, metaErr)
		return nil, metaErr
	}
	if metaErr != nil {
		metaErr = &ledger.SourceError{Source: "reservation", Err: metaErr}
		log.Warn("reservation metadata unavailable, skipping dependent branches", zap.Error(metaErr))
		meta = nil
	}
	if meta == nil {
		meta = &reservation.Meta{ReservationID: req.ReservationID}
	}

	report := &ImportReport{
		LedgerID:      req.LedgerID,
		ReservationID: req.ReservationID,
		CostBasis:     req.CostBasis,
		Branches:      make(map[Source]BranchResult, len(AllSources)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, source := range AllSources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := r.runBranch(ctx, source, req, meta, metaErr, log)

			mu.Lock()
			report.Branches[source] = result
			mu.Unlock()
			telemetry.AddEvent(span, "branch.settled",
				"source", string(source),
				"status", string(result.Status),
				"created", result.Created)
			r.metrics.RecordBranch(ctx, string(source), string(result.Status), result.Created, result.Skipped)
		}()
	}
	wg.Wait()

	report.summarize()
	r.metrics.RecordImport(ctx, len(report.Failed()), time.Since(started))
	telemetry.SetAttributes(span,
		"created", report.Created,
		"skipped", report.Skipped,
		"imported", report.Imported,
	)
	if len(report.Failed()) == 0 {
		telemetry.SetOK(span)
	}
	log.Info("import settled",
		zap.String("summary", report.Summary),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped))

	snapshot, err := r.writer.RefetchLedger(ctx, req.LedgerID)
	if err != nil {
		log.Warn("refetch after import failed", zap.Error(err))
	} else {
		report.Ledger = snapshot
	}
	return report, nil
}

func validateRequest(req *ImportRequest) error {
	if req.LedgerID == uuid.Nil {
		return ledger.NewValidationError("Ledger ID is required")
	}
	if req.ReservationID == uuid.Nil {
		return ledger.NewValidationError("Reservation ID is required")
	}
	if req.Session == nil {
		return ledger.NewValidationError("A dedup session is required")
	}
	if req.CostBasis == "" {
		req.CostBasis = pricing.CostBasisRetail
	}
	if !req.CostBasis.IsValid() {
		return ledger.NewValidationError(fmt.Sprintf("Unknown cost basis %q", req.CostBasis))
	}
	return nil
}

// prepareSession resets the caller's session and seeds it with keys of records already in the ledger
func (r *Reconciler) prepareSession(ctx context.Context, req ImportRequest) error {
	if err := req.Session.Reset(ctx); err != nil {
		return fmt.Errorf("reset dedup session: %w", err)
	}

	keys := make([]ledger.DedupKey, 0)
	if req.Existing != nil {
		keys = append(keys, ledger.KeysOf(req.Existing)...)
	}
	if req.SeedFromStore {
		stored, err := r.writer.Snapshot(ctx, req.LedgerID)
		if err != nil {
			return err
		}
		keys = append(keys, ledger.KeysOf(stored)...)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := req.Session.Seed(ctx, keys...); err != nil {
		return fmt.Errorf("seed dedup session: %w", err)
	}
	return nil
}

// branchTotal is what a source query produced: a currency total and a description for the details field
type branchTotal struct {
	total       decimal.Decimal
	description string
}

func (r *Reconciler) runBranch(ctx context.Context, source Source, req ImportRequest, meta *reservation.Meta, metaErr error, log *zap.Logger) (result BranchResult) {
	result = BranchResult{Source: source, Category: source.Category(), Total: decimal.Zero}
	defer func() {
		if p := recover(); p != nil {
			result.Status = BranchFailed
			result.Error = fmt.Sprintf("panic: %v", p)
			log.Error("import branch panicked", zap.String("source", string(source)), zap.Any("panic", p))
		}
	}()

	if metaErr != nil && source.NeedsMeta() {
		result.Status = BranchFailed
		result.Error = metaErr.Error()
		return result
	}

	if source == SourceLodging && meta.IsSocialContribution() {
		result.Status = BranchSkippedByPolicy
		result.Message = "lodging is not charged to social contribution organizations"
		return result
	}

	computed, err := r.compute(ctx, source, req, meta)
	if err != nil {
		srcErr := &ledger.SourceError{Source: string(source), Err: err}
		log.Warn("import branch source unavailable", zap.String("source", string(source)), zap.Error(err))
		result.Status = BranchFailed
		result.Error = srcErr.Error()
		return result
	}

	result.Total = computed.total
	result.Amount = pricing.ToThousandUnits(computed.total)
	if result.Amount == 0 {
		result.Status = BranchNothingToImport
		result.Message = "nothing to import"
		return result
	}

	details := truncate(ledger.FormatDetails(source.Label(), computed.description), maxDetailsLength)
	var errs []error
	if source.HasExpenses() {
		for _, planned := range []bool{true, false} {
			key := ledger.ExpenseKey(source.Label(), source.Category(), planned)
			created, err := r.createOnce(ctx, req.Session, key, func() error {
				_, err := r.writer.CreateExpense(ctx, req.LedgerID, ledgerapp.ExpenseInput{
					Category:  string(source.Category()),
					Amount:    result.Amount,
					Details:   details,
					IsPlanned: planned,
				})
				return err
			})
			tally(&result, created, err, &errs)
		}
	}

	key := ledger.IncomeKey(source.Label(), source.Category())
	created, err := r.createOnce(ctx, req.Session, key, func() error {
		_, err := r.writer.CreateIncome(ctx, req.LedgerID, ledgerapp.IncomeInput{
			Category: string(source.Category()),
			Amount:   result.Amount,
			Details:  details,
		})
		return err
	})
	tally(&result, created, err, &errs)

	if len(errs) > 0 {
		result.Status = BranchFailed
		result.Error = errors.Join(errs...).Error()
		log.Warn("import branch partially failed",
			zap.String("source", string(source)),
			zap.Int("created", result.Created),
			zap.Error(errors.Join(errs...)))
		return result
	}
	result.Status = BranchImported
	if result.Created == 0 {
		result.Message = "already imported"
	}
	return result
}

func tally(result *BranchResult, created bool, err error, errs *[]error) {
	switch {
	case err != nil:
		*errs = append(*errs, err)
	case created:
		result.Created++
	default:
		result.Skipped++
	}
}

// createOnce claims key and runs create. A key already claimed is skipped without error.
func (r *Reconciler) createOnce(ctx context.Context, session ledger.DedupSession, key ledger.DedupKey, create func() error) (bool, error) {
	free, err := session.Claim(ctx, key)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !free {
		r.logger.Debug("duplicate skipped",
			zap.String("key", key.String()),
			zap.String("code", ledger.CodeDuplicateSkipped))
		return false, nil
	}
	if err := create(); err != nil {
		if relErr := session.Release(ctx, key); relErr != nil {
			r.logger.Warn("failed to release dedup key", zap.String("key", key.String()), zap.Error(relErr))
		}
		return false, err
	}
	return true, nil
}

func (r *Reconciler) compute(ctx context.Context, source Source, req ImportRequest, meta *reservation.Meta) (branchTotal, error) {
	switch source {
	case SourceLodging:
		allocs, err := r.sources.Lodging.LodgingAllocations(ctx, req.ReservationID)
		if err != nil {
			return branchTotal{}, err
		}
		nights := 0
		for _, a := range allocs {
			nights += a.Nights
		}
		return branchTotal{
			total:       r.calc.LodgingTotal(allocs),
			description: fmt.Sprintf("%d rooms, %d room-nights", len(allocs), nights),
		}, nil

	case SourceMeals:
		allocs, err := r.sources.Meals.MealAllocations(ctx, req.ReservationID)
		if err != nil {
			return branchTotal{}, err
		}
		return branchTotal{
			total:       r.calc.MealTotal(allocs, req.CostBasis),
			description: fmt.Sprintf("%d services (%s)", len(allocs), req.CostBasis),
		}, nil

	case SourcePrograms:
		allocs, err := r.sources.Programs.ProgramAllocations(ctx, req.ReservationID)
		if err != nil {
			return branchTotal{}, err
		}
		if meta.BillingMode == reservation.BillingModeGroup {
			for i := range allocs {
				allocs[i].BillingMode = reservation.BillingModeGroup
			}
		}
		return branchTotal{
			total:       r.calc.ProgramTotal(allocs, meta.BillingMode),
			description: describePrograms(allocs),
		}, nil

	case SourceSupplies:
		items, err := r.sources.Supplies.ItemAllocations(ctx, req.ReservationID)
		if err != nil {
			return branchTotal{}, err
		}
		return branchTotal{total: r.calc.ItemTotal(items), description: describeItems(items)}, nil

	case SourceOther:
		items, err := r.sources.Others.ItemAllocations(ctx, req.ReservationID)
		if err != nil {
			return branchTotal{}, err
		}
		return branchTotal{total: r.calc.ItemTotal(items), description: describeItems(items)}, nil
	}
	return branchTotal{}, fmt.Errorf("unknown source %q", source)
}

const (
	maxDescriptionNames = 5
	maxDetailsLength    = 500
)

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func describePrograms(allocs []reservation.ProgramAllocation) string {
	names := make([]string, 0, len(allocs))
	for _, a := range allocs {
		name := a.ProgramName
		if a.InstructorLabel != "" {
			name = fmt.Sprintf("%s (%s)", a.ProgramName, a.InstructorLabel)
		}
		names = append(names, name)
	}
	return joinNames(names)
}

func describeItems(items []reservation.ItemAllocation) string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return joinNames(names)
}

func joinNames(names []string) string {
	if len(names) <= maxDescriptionNames {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:maxDescriptionNames], ", "), len(names)-maxDescriptionNames)
}
