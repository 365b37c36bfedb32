package models

import "errors"

// Sentinel errors shared across repositories and services. Repositories map
// driver-level failures (pgx.ErrNoRows, unique violations) onto these so
// callers can branch with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrForbidden = errors.New("forbidden")
)
