package router

import (
	"github.com/retreat/backend/internal/interfaces/http/handler"
)

// LedgerRoutes builds the /ledgers/:ledger_id route group
func LedgerRoutes(ledgers *handler.LedgerHandler, discounts *handler.DiscountHandler, imports *handler.ImportHandler) *DomainGroup {
	g := NewDomainGroup("/ledgers/:ledger_id")
	g.GET("", ledgers.GetLedger).
		DELETE("", ledgers.BulkDelete).
		POST("/expenses", ledgers.CreateExpense).
		PUT("/expenses/:id", ledgers.UpdateExpense).
		DELETE("/expenses/:id", ledgers.DeleteExpense).
		POST("/income", ledgers.CreateIncome).
		PUT("/income/:id", ledgers.UpdateIncome).
		DELETE("/income/:id", ledgers.DeleteIncome)

	g.Group("/discount").
		POST("", discounts.Apply).
		POST("/snapshot", discounts.CaptureSnapshot).
		POST("/restore", discounts.Restore).
		GET("/rates", discounts.Rates)

	g.POST("/import", imports.Import).
		GET("/lodging-summary", imports.LodgingSummary)
	return g
}
