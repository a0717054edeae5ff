package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/retreat/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runBatches runs fn over entries in sequential batches of batchSize.
// Items within a batch run concurrently; a failing item never cancels its siblings.
func runBatches(ctx context.Context, entries []ledger.Entry, batchSize int, fn func(context.Context, ledger.Entry) error) BatchResult {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))

		var g errgroup.Group
		for _, entry := range entries[start:end] {
			g.Go(func() error {
				err := fn(ctx, entry)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, ItemError{ID: entry.GetID(), Error: err.Error()})
					return nil
				}
				result.Succeeded++
				return nil
			})
		}
		_ = g.Wait()
	}
	return result
}

// BulkDelete sweeps the planned, executed and income views of a ledger
func (s *LedgerService) BulkDelete(ctx context.Context, ledgerID uuid.UUID) (*BatchResult, error) {
	release, err := s.guard.Acquire(ledgerID, "bulk delete")
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "bulk_delete")
	defer span.End()
	started := time.Now()

	snap, err := s.Snapshot(ctx, ledgerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entries := snap.Entries()
	result := runBatches(ctx, entries, s.batchSize, func(ctx context.Context, e ledger.Entry) error {
		err := s.deleteEntry(ctx, e)
		if err == nil || errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return ledger.NewPersistenceError("bulk delete", err)
	})

	s.metrics.RecordBatch(ctx, "bulk_delete", result.Succeeded, result.Failed, time.Since(started))
	telemetry.SetAttributes(span,
		"ledger_id", ledgerID.String(),
		"records", len(entries),
		"failed", result.Failed,
	)
	s.logger.Info("bulk delete finished",
		zap.String("ledger_id", ledgerID.String()),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))

	s.discardDiscountSnapshot(ledgerID)
	s.refetchQuietly(ctx, ledgerID)
	return &result, nil
}
