package services

import (
	"errors"
	"fmt"
)

// Not found
var (
	ErrTableNotFound     = errors.New("table not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	ErrMenuItemNotFound  = errors.New("menu item not found")
	ErrSessionNotFound   = errors.New("no active session for this code")
)

// Conflicts
var (
	ErrOrderClosed       = errors.New("order is already served")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrDuplicate         = errors.New("record already exists")
	ErrMenuUnavailable   = errors.New("menu item is not available")
	ErrMenuItemInUse     = errors.New("menu item is referenced by orders")
	// ErrTableLocked means a conditional lock lost a race.
	ErrTableLocked = errors.New("table is already locked")
)

// ErrJoinCodeExhausted is returned when no free join code was found within
// the configured number of attempts.
var ErrJoinCodeExhausted = errors.New("could not generate a unique join code")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsNotFound groups the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrOrderItemNotFound) ||
		errors.Is(err, ErrMenuItemNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsConflict groups errors that describe a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOrderClosed) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrMenuUnavailable) ||
		errors.Is(err, ErrMenuItemInUse) ||
		errors.Is(err, ErrTableLocked)
}
