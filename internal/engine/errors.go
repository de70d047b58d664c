package engine

import (
	"errors"
	"fmt"
)

// SystemError represents a wiring or registry error detected by the
// orchestrator. These are configuration mistakes surfaced to the caller
// at registration time, never during dispatch.
type SystemError struct {
	// Code identifies the error category.
	Code SystemErrorCode

	// Message is a human-readable description.
	Message string

	// Unit identifies the affected decision unit, when applicable.
	Unit string
}

// SystemErrorCode categorizes system errors.
type SystemErrorCode string

const (
	// ErrCodeDuplicateUnit indicates a unit name registered twice.
	ErrCodeDuplicateUnit SystemErrorCode = "DUPLICATE_UNIT"

	// ErrCodeUnknownUnit indicates a reference to an unregistered unit.
	ErrCodeUnknownUnit SystemErrorCode = "UNKNOWN_UNIT"

	// ErrCodeDestroyed indicates registration on a destroyed system.
	ErrCodeDestroyed SystemErrorCode = "SYSTEM_DESTROYED"
)

// Error implements the error interface.
func (e *SystemError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("%s: %s (unit=%s)", e.Code, e.Message, e.Unit)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDuplicateUnit reports whether err is a duplicate registration error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateUnit(err error) bool {
	var se *SystemError
	if errors.As(err, &se) {
		return se.Code == ErrCodeDuplicateUnit
	}
	return false
}

// IsUnknownUnit reports whether err references an unregistered unit.
// Uses errors.As to handle wrapped errors.
func IsUnknownUnit(err error) bool {
	var se *SystemError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnknownUnit
	}
	return false
}

// newDuplicateUnitError creates a SystemError for duplicate registration.
func newDuplicateUnitError(unit string) *SystemError {
	return &SystemError{
		Code:    ErrCodeDuplicateUnit,
		Message: "unit name already registered",
		Unit:    unit,
	}
}

// newUnknownUnitError creates a SystemError for a missing unit.
func newUnknownUnitError(unit string) *SystemError {
	return &SystemError{
		Code:    ErrCodeUnknownUnit,
		Message: "unit is not registered",
		Unit:    unit,
	}
}

// newDestroyedError creates a SystemError for use after Destroy.
func newDestroyedError() *SystemError {
	return &SystemError{
		Code:    ErrCodeDestroyed,
		Message: "system has been destroyed",
	}
}
