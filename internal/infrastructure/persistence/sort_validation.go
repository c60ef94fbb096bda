package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a safe ORDER BY clause
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir)
}

// AccountSortFields contains allowed sort fields for accounts
var AccountSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"name":          true,
	"status":        true,
	"last_login_at": true,
}

// ClientSortFields contains allowed sort fields for clients
var ClientSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"email":       true,
	"origin":      true,
	"owner_email": true,
}

// TripSortFields contains allowed sort fields for trip files
var TripSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"status":     true,
}

// LedgerSortFields contains allowed sort fields for ledger entries
var LedgerSortFields = map[string]bool{
	"created_at": true,
	"amount":     true,
	"account":    true,
	"entry_type": true,
}

// AuditSortFields contains allowed sort fields for audit entries
var AuditSortFields = map[string]bool{
	"created_at": true,
	"action":     true,
	"outcome":    true,
}

// escapeLike escapes LIKE wildcards in user search input
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.TrimSpace(s))
}

func toLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
