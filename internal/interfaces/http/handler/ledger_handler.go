package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/retreat/backend/internal/application/ledger"
	"github.com/retreat/backend/internal/interfaces/http/dto"
)

// LedgerHandler serves the manual mutation contract and the ledger views
type LedgerHandler struct {
	BaseHandler
	service *ledgerapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *ledgerapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// GetLedger returns the three views of a ledger.
// The cached view is served unless refresh=true asks for an authoritative refetch.
// GET /ledgers/:ledger_id
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	var (
		view *ledgerapp.SnapshotResponse
		err  error
	)
	if c.Query("refresh") == "true" {
		view, err = h.service.RefetchLedger(c.Request.Context(), ledgerID)
	} else {
		view, err = h.service.View(c.Request.Context(), ledgerID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// BulkDelete removes every record of the ledger
// DELETE /ledgers/:ledger_id
func (h *LedgerHandler) BulkDelete(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	result, err := h.service.BulkDelete(c.Request.Context(), ledgerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CreateExpense creates a planned or executed expense record
// POST /ledgers/:ledger_id/expenses
func (h *LedgerHandler) CreateExpense(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	var input ledgerapp.ExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.service.CreateExpense(c.Request.Context(), ledgerID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// UpdateExpense patches an expense record
// PUT /ledgers/:ledger_id/expenses/:id
func (h *LedgerHandler) UpdateExpense(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var patch ledgerapp.ExpensePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.service.UpdateExpense(c.Request.Context(), id, patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// DeleteExpense deletes an expense record. Deleting a missing record reports deleted=false.
// DELETE /ledgers/:ledger_id/expenses/:id
func (h *LedgerHandler) DeleteExpense(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteExpense(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.DeleteResult{Deleted: deleted})
}

// CreateIncome creates an income record
// POST /ledgers/:ledger_id/income
func (h *LedgerHandler) CreateIncome(c *gin.Context) {
	ledgerID, ok := h.uuidParam(c, "ledger_id")
	if !ok {
		return
	}

	var input ledgerapp.IncomeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.service.CreateIncome(c.Request.Context(), ledgerID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// UpdateIncome patches an income record
// PUT /ledgers/:ledger_id/income/:id
func (h *LedgerHandler) UpdateIncome(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var patch ledgerapp.IncomePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.InvalidBody(c, err)
		return
	}

	record, err := h.service.UpdateIncome(c.Request.Context(), id, patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// DeleteIncome deletes an income record
// DELETE /ledgers/:ledger_id/income/:id
func (h *LedgerHandler) DeleteIncome(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteIncome(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.DeleteResult{Deleted: deleted})
}
