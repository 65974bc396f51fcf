// Package pgerr classifies PostgreSQL driver errors so repositories can turn
// them into the sentinel errors of package common.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes we react to.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
)

// Code returns the SQLSTATE carried by err, or "" if err is not a server error.
func Code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return Code(err) == UniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return Code(err) == ForeignKeyViolation
}
