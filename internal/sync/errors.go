package sync

import (
	"errors"
	"fmt"
)

// Errors surfaced to the application layer. Connectivity and conflict
// conditions never propagate; they are resolved internally and logged.
var (
	// ErrNotFound maps a missing record lookup
	ErrNotFound = errors.New("record not found")

	// ErrReconcileBusy is returned when a reconcile pass is already
	// running; the caller should simply try again later
	ErrReconcileBusy = errors.New("reconcile already in progress")

	// ErrOffline is returned by operations that only make sense against
	// the remote store (reconcile, catalog pull)
	ErrOffline = errors.New("remote store unreachable")
)

// ValidationError reports bad input or an ownership violation. It is the
// only error kind besides ErrNotFound that callers are expected to show
// to users.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
