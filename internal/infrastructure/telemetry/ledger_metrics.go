package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics records import and batch activity of the ledger service.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	logger *zap.Logger

	importsTotal      *Counter
	importDuration    *Histogram
	branchesTotal     *Counter
	recordsCreated    *Counter
	duplicatesSkipped *Counter
	batchItemsTotal   *Counter
	batchDuration     *Histogram
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewLedgerMetrics creates the ledger instruments on the given meter.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{logger: logger}
	var err error

	if lm.importsTotal, err = NewCounter(cfg.Meter,
		"ledger_import_total", "Number of completed import runs", "{imports}"); err != nil {
		return nil, err
	}
	if lm.importDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_import_duration_seconds",
		Description: "Wall time of an import run",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if lm.branchesTotal, err = NewCounter(cfg.Meter,
		"ledger_import_branch_total", "Import branches by source and status", "{branches}"); err != nil {
		return nil, err
	}
	if lm.recordsCreated, err = NewCounter(cfg.Meter,
		"ledger_import_records_created_total", "Ledger records created by imports", "{records}"); err != nil {
		return nil, err
	}
	if lm.duplicatesSkipped, err = NewCounter(cfg.Meter,
		"ledger_import_duplicates_skipped_total", "Records skipped because their dedup key was already used", "{records}"); err != nil {
		return nil, err
	}
	if lm.batchItemsTotal, err = NewCounter(cfg.Meter,
		"ledger_batch_items_total", "Items processed by batched ledger operations", "{items}"); err != nil {
		return nil, err
	}
	if lm.batchDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_batch_duration_seconds",
		Description: "Wall time of a batched ledger operation",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordBranch records the outcome of one import branch
func (lm *LedgerMetrics) RecordBranch(ctx context.Context, source, status string, created, skipped int) {
	if lm == nil {
		return
	}
	lm.branchesTotal.Inc(ctx, AttrSource.String(source), AttrStatus.String(status))
	if created > 0 {
		lm.recordsCreated.Add(ctx, int64(created), AttrSource.String(source))
	}
	if skipped > 0 {
		lm.duplicatesSkipped.Add(ctx, int64(skipped), AttrSource.String(source))
	}
}

// RecordImport records a finished import run; any failed branch makes it partial
func (lm *LedgerMetrics) RecordImport(ctx context.Context, failedBranches int, d time.Duration) {
	if lm == nil {
		return
	}
	outcome := "complete"
	if failedBranches > 0 {
		outcome = "partial"
	}
	lm.importsTotal.Inc(ctx, AttrOutcome.String(outcome))
	lm.importDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}

// RecordBatch records a finished batched operation (bulk delete, discount apply or restore)
func (lm *LedgerMetrics) RecordBatch(ctx context.Context, operation string, succeeded, failed int, d time.Duration) {
	if lm == nil {
		return
	}
	lm.batchItemsTotal.Add(ctx, int64(succeeded), AttrOperation.String(operation), AttrOutcome.String("succeeded"))
	lm.batchItemsTotal.Add(ctx, int64(failed), AttrOperation.String(operation), AttrOutcome.String("failed"))
	lm.batchDuration.RecordDuration(ctx, d, AttrOperation.String(operation))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
