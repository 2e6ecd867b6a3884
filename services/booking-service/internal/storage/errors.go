package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/practiceops/practiceops/libs/apperr"
)

const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == codeUniqueViolation || pgErr.Code == codeExclusionViolation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// readErr tags a failed read of table.
func readErr(table, notFound string, err error) error {
	if IsNotFound(err) {
		return apperr.NotFound(table, notFound)
	}
	return apperr.FetchFailed(table, err)
}

// writeErr tags a failed write of table. conflict is the message shown when
// a uniqueness constraint rejects the row.
func writeErr(table, conflict, notFound string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsConflict(err):
		return apperr.Conflict(table, conflict, err)
	case IsNotFound(err):
		return apperr.NotFound(table, notFound)
	default:
		return apperr.WriteFailed(table, err)
	}
}

// isoDate renders a date column as YYYY-MM-DD whatever the session
// DateStyle is; resolver lookups compare these strings directly.
func isoDate(column string) string {
	return "to_char(" + column + ", 'YYYY-MM-DD')"
}
