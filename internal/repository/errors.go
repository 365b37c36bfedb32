package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isDuplicateError checks if error is a unique constraint violation.
func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return false
}
