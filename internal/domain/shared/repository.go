package shared

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter is the paging and ordering of a list query. OrderBy must be checked
// against a whitelist before it reaches SQL.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "asc"}
}

// Normalized clamps the page to >= 1 and the page size to (0, MaxPageSize],
// and lowercases the direction.
func (f Filter) Normalized() Filter {
	f.Page = max(f.Page, 1)
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	f.PageSize = min(f.PageSize, MaxPageSize)
	f.OrderDir = strings.ToLower(f.OrderDir)
	return f
}

// Offset is the number of rows before the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
