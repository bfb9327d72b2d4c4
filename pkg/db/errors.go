package db

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgConnectionClass      = "08"
	pgAdminShutdownClass   = "57P"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	return chainContains(err, func(msg string) bool {
		if constraintName != "" {
			return strings.Contains(msg, constraintName)
		}
		return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	})
}

// IsTransient reports whether err is worth retrying the whole transaction for:
// serialization failures, deadlocks, dropped connections and busy SQLite files.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return transientSQLState(string(pqErr.Code))
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	return chainContains(err, func(msg string) bool {
		msg = strings.ToLower(msg)
		return strings.Contains(msg, "database is locked") ||
			strings.Contains(msg, "database table is locked") ||
			strings.Contains(msg, "connection reset by peer")
	})
}

// chainContains applies match to the message of every error in err's tree.
// Application errors print only their own code and message, so the driver
// text is visible on the wrapped cause rather than on the outer error.
func chainContains(err error, match func(msg string) bool) bool {
	if err == nil {
		return false
	}
	if match(err.Error()) {
		return true
	}
	switch wrapped := err.(type) {
	case interface{ Unwrap() error }:
		return chainContains(wrapped.Unwrap(), match)
	case interface{ Unwrap() []error }:
		for _, inner := range wrapped.Unwrap() {
			if chainContains(inner, match) {
				return true
			}
		}
	}
	return false
}

func transientSQLState(code string) bool {
	switch {
	case code == pgSerializationFailure, code == pgDeadlockDetected:
		return true
	case strings.HasPrefix(code, pgConnectionClass):
		return true
	case strings.HasPrefix(code, pgAdminShutdownClass):
		return true
	}
	return false
}
