package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/retreat/backend/internal/application/ledger"
	"github.com/retreat/backend/internal/domain/ledger"
	"github.com/retreat/backend/internal/interfaces/http/dto"
)

// DiscountHandler exposes the discount engine
type DiscountHandler struct {
	BaseHandler
	service *ledgerapp.LedgerService
}

// NewDiscountHandler creates a new DiscountHandler
func NewDiscountHandler(service *ledgerapp.LedgerService) *DiscountHandler {
	return &DiscountHandler{service: service}
}

// Apply discounts every record within scope
// POST /ledgers/:ledger_id/discount
func (h *DiscountHandler) Apply(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	var req dto.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidBody(c, err)
		return
	}

	result, err := h.service.ApplyDiscount(c.Request.Context(), ledgerID, ledgerapp.DiscountRequest{
		Scope: ledger.Scope(req.Scope),
		Rate:  req.Rate,
		Mode:  ledger.DiscountMode(req.Mode),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CaptureSnapshot records the pre-discount amounts. Scope defaults to all.
// POST /ledgers/:ledger_id/discount/snapshot
func (h *DiscountHandler) CaptureSnapshot(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	var req dto.DiscountSnapshotRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.InvalidBody(c, err)
			return
		}
	}
	scope := ledger.ScopeAll
	if req.Scope != "" {
		scope = ledger.Scope(req.Scope)
	}

	info, err := h.service.CaptureDiscountSnapshot(c.Request.Context(), ledgerID, scope, req.Replace)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Restore writes back the captured amounts and clears discount rates
// POST /ledgers/:ledger_id/discount/restore
func (h *DiscountHandler) Restore(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	result, err := h.service.RestoreDiscount(c.Request.Context(), ledgerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Rates returns the active discount rate per category
// GET /ledgers/:ledger_id/discount/rates
func (h *DiscountHandler) Rates(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	rates, err := h.service.EffectiveRates(c.Request.Context(), ledgerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}
