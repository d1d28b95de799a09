package store

import (
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Postgres integrity constraint violation codes.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// IsIntegrityViolation reports whether err is a unique or foreign key
// constraint failure. These are what two racing ingests produce, and the
// only errors worth retrying.
//
// A check violation means the row itself is bad and fails the same way on
// every attempt, so it is not one.
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgUniqueViolation:
			return true
		}
		return false
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_CHECK {
			return false
		}
		// Extended codes keep the primary code in the low byte.
		return code&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// IsCheckViolation reports whether err is a check constraint failure.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK
	}
	return false
}
