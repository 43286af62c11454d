package apperr

import (
	"errors"
	"fmt"
)

// ErrProfileNotFound means an operation referenced a profile that does not
// exist. Callers treat it as a no-op answer, not a failure.
var ErrProfileNotFound = errors.New("profile not found")

// ErrNotVerified means the user has not passed the human check yet.
var ErrNotVerified = errors.New("user not verified")

// PolicyError is returned when a rate limit or quota rejects an action.
// Reason is human-readable and safe to relay verbatim to the user.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

// Denied builds a PolicyError.
func Denied(reason string) error { return &PolicyError{Reason: reason} }

// IsPolicyDenied reports whether err is a policy rejection and extracts the
// reason when it is.
func IsPolicyDenied(err error) (string, bool) {
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	return "", false
}

// ValidationError rejects malformed profile input (age range, name length,
// bio length). Distinct from PolicyError: it is about the value, not timing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Store wraps a persistence failure. This is the only category that must
// propagate as a hard failure: the core never converts it into a business
// answer like "no candidates" or "not banned".
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
