package persistence

import (
	"github.com/retreat/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyLedgerFilter adds search, ordering and paging. Ties on the sort field fall back to id.
func applyLedgerFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("details LIKE ? OR notes LIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	field := ValidateSortField(filter.OrderBy, LedgerRecordSortFields, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if field != "id" {
		query = query.Order("id ASC")
	}

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
