package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrAccountPending     = errors.New("account pending approval")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrMFARequired        = errors.New("mfa required")
	ErrInvalidMFACode     = errors.New("invalid mfa code")
	ErrMFANotConfigured   = errors.New("mfa not configured")
)

// ConflictError marks a uniqueness violation. Comparable values so
// errors.Is works against the sentinels below.
type ConflictError struct {
	msg string
}

func (e ConflictError) Error() string { return e.msg }

var (
	ErrEmailTaken           = ConflictError{msg: "email already in use"}
	ErrSchoolCodeTaken      = ConflictError{msg: "school code already in use"}
	ErrTSCNumberTaken       = ConflictError{msg: "TSC number already registered for this school"}
	ErrAdmissionNumberTaken = ConflictError{msg: "admission number already in use for this school"}
)

// ValidationError carries every violation at once so clients can show
// all of them instead of fixing one at a time.
type ValidationError struct {
	Violations []string
}

func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Violations, "; ")
}
