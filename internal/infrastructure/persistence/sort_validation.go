package persistence

import (
	"strings"
)

// CommissionRateSortFields are the columns commission rates may be ordered by
var CommissionRateSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"type":       true,
	"percentage": true,
	"enabled":    true,
}

// ValidateSortOrder normalizes a direction to ASC or DESC (the default)
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, else defaultField
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	if field := strings.TrimSpace(sortField); allowed[field] {
		return field
	}
	return defaultField
}

// orderClause builds an ORDER BY clause from whitelisted input. id is appended
// as a tiebreaker so pages are stable.
func orderClause(sortField, orderDir string, allowed map[string]bool, defaultField string) string {
	field := ValidateSortField(sortField, allowed, defaultField)
	clause := field + " " + ValidateSortOrder(orderDir)
	if field != "id" {
		clause += ", id ASC"
	}
	return clause
}
