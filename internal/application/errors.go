package application

import (
	"errors"
	"fmt"

	"github.com/example/library-circulation/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness rule rejects the input.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication fails for any reason.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrCopyUnavailable is returned when the selected copy cannot be lent.
	ErrCopyUnavailable = errors.New("application: copy unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// EligibilityError rejects a checkout with the user-facing reason produced by
// the eligibility rules.
type EligibilityError struct {
	Reason string
}

// Error implements the error interface.
func (e *EligibilityError) Error() string {
	return fmt.Sprintf("reader not eligible: %s", e.Reason)
}

// mapStoreError translates persistence sentinels into application sentinels so
// handlers never depend on the storage layer.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrCopyUnavailable):
		return ErrCopyUnavailable
	default:
		return err
	}
}
