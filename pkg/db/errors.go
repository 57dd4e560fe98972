package db

import "strings"

// IsUniqueViolation reports whether err references a unique constraint
// violation. When constraintName is provided, the helper looks for the
// constraint text in the error message. The sqlite message form is matched
// too since tests run against sqlite.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
