package services

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to the HTTP layer. Every lifecycle failure wraps one
// of these sentinels so callers can match with errors.Is and render a
// user-facing message. A failed operation always leaves the entity unchanged.
var (
	// ErrValidation marks malformed or missing input; always caller-fixable.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState marks an operation that is not legal from the entity's
	// current status.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrInvalidTransition is the status-transition sub-case of ErrInvalidState:
	// errors.Is(err, ErrInvalidState) also holds for it.
	ErrInvalidTransition = fmt.Errorf("%w: illegal status transition", ErrInvalidState)

	// ErrConflict marks a concurrent modification; the caller should re-read
	// and retry.
	ErrConflict = errors.New("entity was modified concurrently")

	// ErrNotFound marks an id that does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientCredit is returned when the credit ledger rejects a deduction.
	ErrInsufficientCredit = errors.New("insufficient credit")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func transitionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}
