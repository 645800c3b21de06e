package db

import "strings"

// IsUniqueViolation reports whether err is a Postgres unique violation.
// With a constraint name it matches that specific constraint, otherwise any
// duplicate-key failure. String matching is intentional: it works across both
// drivers and through gorm's wrapping.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	if constraintName != "" {
		return strings.Contains(message, constraintName)
	}
	return strings.Contains(message, "duplicate key value")
}
