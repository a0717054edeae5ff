package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retreat/backend/internal/application/reconcile"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/domain/pricing"
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/retreat/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// SessionFactory hands out a fresh dedup session per import
type SessionFactory interface {
	NewSession() ledger.DedupSession
}

// ImportHandler runs reservation imports and serves the lodging breakdown
type ImportHandler struct {
	BaseHandler
	reconciler  *reconcile.Reconciler
	sessions    SessionFactory
	lodging     reservation.LodgingSource
	overageRate decimal.Decimal
	basis       pricing.CostBasis
}

// NewImportHandler creates a new ImportHandler. defaultBasis applies when a request names none.
func NewImportHandler(
	reconciler *reconcile.Reconciler,
	sessions SessionFactory,
	lodging reservation.LodgingSource,
	pricingCfg pricing.Config,
	defaultBasis pricing.CostBasis,
) *ImportHandler {
	if defaultBasis == "" {
		defaultBasis = pricing.CostBasisRetail
	}
	return &ImportHandler{
		reconciler:  reconciler,
		sessions:    sessions,
		lodging:     lodging,
		overageRate: pricingCfg.OverageRate,
		basis:       defaultBasis,
	}
}

// Import reconciles a reservation into the ledger.
// Branch failures are reported inside the 200 response; only request, guard and metadata errors fail the call.
// POST /ledgers/:ledger_id/import
func (h *ImportHandler) Import(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	basis := h.basis
	if req.CostBasis != "" {
		basis = pricing.CostBasis(req.CostBasis)
	}
	seed := true
	if req.SeedFromStore != nil {
		seed = *req.SeedFromStore
	}

	report, err := h.reconciler.Import(c.Request.Context(), reconcile.ImportRequest{
		LedgerID:      ledgerID,
		ReservationID: uuid.MustParse(req.ReservationID),
		Session:       h.sessions.NewSession(),
		SeedFromStore: seed,
		CostBasis:     basis,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// LodgingSummary groups the lodging of a reservation by check-in date and room type
// GET /ledgers/:ledger_id/lodging-summary?reservation_id=
func (h *ImportHandler) LodgingSummary(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Query("reservation_id"))
	if err != nil {
		h.BadRequest(c, "Invalid reservation_id format")
		return
	}

	allocs, err := h.lodging.LodgingAllocations(c.Request.Context(), reservationID)
	if err != nil {
		h.HandleError(c, &ledger.SourceError{Source: "lodging", Err: err})
		return
	}

	groups := pricing.GroupLodging(allocs, h.overageRate)
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Subtotal)
	}
	h.Success(c, dto.LodgingSummary{
		ReservationID: reservationID.String(),
		Groups:        groups,
		Total:         total,
		TotalThousand: pricing.ToThousandUnits(total),
	})
}
