package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned for other integrity failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrCopyUnavailable is returned when a checkout races another loan and
	// the copy is no longer "disponivel" at write time.
	ErrCopyUnavailable = errors.New("persistence: copy unavailable")
)
