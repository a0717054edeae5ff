package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const noSnapshotWarning = "no discount snapshot captured; nothing restored"

// CaptureDiscountSnapshot records the current amounts within scope.
// An existing snapshot is kept unless replace is set, so the first capture before discounting wins.
func (s *LedgerService) CaptureDiscountSnapshot(ctx context.Context, ledgerID uuid.UUID, scope ledger.Scope, replace bool) (*DiscountSnapshotInfo, error) {
	if !scope.IsValid() {
		return nil, ledger.NewValidationError(fmt.Sprintf("Unknown discount scope %q", scope))
	}

	release, err := s.guard.Acquire(ledgerID, "discount_snapshot")
	if err != nil {
		return nil, err
	}
	defer release()

	s.discountMu.Lock()
	existing, ok := s.discounts[ledgerID]
	s.discountMu.Unlock()
	if ok && !replace {
		return toSnapshotInfo(existing), nil
	}

	snap, err := s.Snapshot(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	captured := ledger.CaptureDiscountSnapshot(snap, scope)

	s.discountMu.Lock()
	s.discounts[ledgerID] = captured
	s.discountMu.Unlock()

	s.logger.Info("discount snapshot captured",
		zap.String("ledger_id", ledgerID.String()),
		zap.String("scope", string(scope)),
		zap.Int("records", captured.Len()))
	return toSnapshotInfo(captured), nil
}

// DiscountSnapshot returns the captured snapshot info of a ledger, if any
func (s *LedgerService) DiscountSnapshot(ledgerID uuid.UUID) (*DiscountSnapshotInfo, bool) {
	snap, ok := s.discountSnapshot(ledgerID)
	if !ok {
		return nil, false
	}
	return toSnapshotInfo(snap), true
}

// ApplyDiscount discounts every record within scope.
// In compound mode the current amount is discounted; in from_snapshot mode the captured original is.
func (s *LedgerService) ApplyDiscount(ctx context.Context, ledgerID uuid.UUID, req DiscountRequest) (*DiscountResult, error) {
	if req.Mode == "" {
		req.Mode = ledger.DiscountModeCompound
	}
	if !req.Scope.IsValid() {
		return nil, ledger.NewValidationError(fmt.Sprintf("Unknown discount scope %q", req.Scope))
	}
	if !req.Mode.IsValid() {
		return nil, ledger.NewValidationError(fmt.Sprintf("Unknown discount mode %q", req.Mode))
	}
	if err := ledger.ValidateRate(req.Rate); err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire(ledgerID, "discount")
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "apply_discount")
	defer span.End()
	telemetry.SetAttributes(span,
		"ledger_id", ledgerID.String(),
		"scope", string(req.Scope),
		"rate", req.Rate.String(),
		"mode", string(req.Mode),
	)

	started := time.Now()
	captured, hasSnapshot := s.discountSnapshot(ledgerID)
	if req.Mode == ledger.DiscountModeFromSnapshot && !hasSnapshot {
		return nil, ledger.ErrNoDiscountSnapshot
	}

	snap, err := s.Snapshot(ctx, ledgerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	rate := req.Rate
	entries := snap.Filter(req.Scope.Contains)
	batch := runBatches(ctx, entries, s.batchSize, func(ctx context.Context, e ledger.Entry) error {
		rec := e.Base()
		if req.Mode == ledger.DiscountModeFromSnapshot {
			if original, ok := captured.Original(e.GetID()); ok {
				if err := rec.ApplyDiscountFrom(original, rate); err != nil {
					return err
				}
				return ledger.NewPersistenceError("apply discount", s.saveEntry(ctx, e))
			}
		}
		if err := rec.ApplyDiscount(rate); err != nil {
			return err
		}
		return ledger.NewPersistenceError("apply discount", s.saveEntry(ctx, e))
	})

	s.metrics.RecordBatch(ctx, "apply_discount", batch.Succeeded, batch.Failed, time.Since(started))
	s.logger.Info("discount applied",
		zap.String("ledger_id", ledgerID.String()),
		zap.String("scope", string(req.Scope)),
		zap.String("rate", rate.String()),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed))

	s.refetchQuietly(ctx, ledgerID)
	return &DiscountResult{BatchResult: batch, Scope: req.Scope, Rate: &rate, Mode: req.Mode}, nil
}

// RestoreDiscount writes back every captured amount and clears discount rates.
// Without a snapshot nothing is mutated and the result carries a warning.
func (s *LedgerService) RestoreDiscount(ctx context.Context, ledgerID uuid.UUID) (*DiscountResult, error) {
	captured, ok := s.discountSnapshot(ledgerID)
	if !ok {
		s.logger.Warn(noSnapshotWarning, zap.String("ledger_id", ledgerID.String()))
		return &DiscountResult{Warning: noSnapshotWarning}, nil
	}

	release, err := s.guard.Acquire(ledgerID, "discount restore")
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "restore_discount")
	defer span.End()
	started := time.Now()

	snap, err := s.Snapshot(ctx, ledgerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entries := snap.Filter(func(e ledger.Entry) bool {
		_, ok := captured.Original(e.GetID())
		return ok
	})
	batch := runBatches(ctx, entries, s.batchSize, func(ctx context.Context, e ledger.Entry) error {
		original, _ := captured.Original(e.GetID())
		e.Base().RestoreAmount(original)
		return ledger.NewPersistenceError("restore discount", s.saveEntry(ctx, e))
	})

	s.metrics.RecordBatch(ctx, "restore_discount", batch.Succeeded, batch.Failed, time.Since(started))
	if batch.Failed == 0 {
		s.discardDiscountSnapshot(ledgerID)
	}
	s.logger.Info("discount restored",
		zap.String("ledger_id", ledgerID.String()),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed))

	s.refetchQuietly(ctx, ledgerID)
	return &DiscountResult{BatchResult: batch, Scope: captured.Scope}, nil
}

// EffectiveRates returns the active discount rate per category from the cached view
func (s *LedgerService) EffectiveRates(ctx context.Context, ledgerID uuid.UUID) (map[ledger.Category]decimal.Decimal, error) {
	snap, ok := s.view.Get(ledgerID)
	if !ok {
		var err error
		snap, err = s.Snapshot(ctx, ledgerID)
		if err != nil {
			return nil, err
		}
	}
	return ledger.EffectiveRates(snap), nil
}

func (s *LedgerService) discountSnapshot(ledgerID uuid.UUID) (*ledger.DiscountSnapshot, bool) {
	s.discountMu.Lock()
	defer s.discountMu.Unlock()
	snap, ok := s.discounts[ledgerID]
	return snap, ok
}

func (s *LedgerService) discardDiscountSnapshot(ledgerID uuid.UUID) {
	s.discountMu.Lock()
	defer s.discountMu.Unlock()
	delete(s.discounts, ledgerID)
}

func (s *LedgerService) refetchQuietly(ctx context.Context, ledgerID uuid.UUID) {
	if _, err := s.Snapshot(ctx, ledgerID); err != nil {
		s.view.Invalidate(ledgerID)
		s.logger.Warn("ledger refetch failed", zap.String("ledger_id", ledgerID.String()), zap.Error(err))
	}
}

func toSnapshotInfo(snap *ledger.DiscountSnapshot) *DiscountSnapshotInfo {
	return &DiscountSnapshotInfo{
		LedgerID:   snap.LedgerID,
		Scope:      snap.Scope,
		Records:    snap.Len(),
		CapturedAt: snap.CapturedAt,
	}
}
