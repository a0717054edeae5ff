package shared

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns a filter that lists records oldest first without paging
func DefaultFilter() Filter {
	return Filter{
		OrderBy:  "created_at",
		OrderDir: "asc",
	}
}

// Offset returns the row offset for the filter's page, or 0 when paging is disabled
func (f Filter) Offset() int {
	if f.PageSize <= 0 || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
