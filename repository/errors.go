package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/goliatone/go-repository-bun"
)

// isUniqueViolation recognizes unique index failures from SQLite and
// Postgres drivers anywhere in the wrap chain.
func isUniqueViolation(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := strings.ToLower(e.Error())
		if strings.Contains(msg, "unique constraint") ||
			strings.Contains(msg, "duplicate key") ||
			strings.Contains(msg, "already exists") ||
			strings.Contains(msg, "sqlstate 23505") {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}
