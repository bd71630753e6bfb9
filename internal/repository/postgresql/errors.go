package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// constraintViolation reports the violated constraint name when err is a
// unique or exclusion violation.
func constraintViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != pgUniqueViolation && pgErr.Code != pgExclusionViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}
