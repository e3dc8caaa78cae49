// Package common defines shared constants and sentinel errors used across
// the server layers of astroprofile. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Registration errors.
	ErrValidationFailed  = errors.New("validation failed")
	ErrDuplicateUsername = errors.New("username already exists")

	// Login errors.
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session errors. A missing (or malformed/unsigned) credential and an
	// invalid or expired one are different kinds and must stay distinct.
	ErrCredentialMissing = errors.New("credential missing")
	ErrCredentialInvalid = errors.New("credential invalid or expired")

	// Profile errors.
	ErrInvalidDate = errors.New("invalid date")

	// Internal faults. The cause is logged, never returned to the caller.
	ErrStorageFailure = errors.New("storage failure")
	ErrHashing        = errors.New("hashing error")
	ErrInternal       = errors.New("internal error")
)

// ValidationError carries every violated registration rule, in rule order.
// It matches ErrValidationFailed with errors.Is.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
