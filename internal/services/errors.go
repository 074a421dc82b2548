package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error categories. Every error returned by this package matches exactly one
// of these through errors.Is; handlers map categories to status codes.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal error")
)

var (
	// Sign-up
	ErrEmailTaken = fmt.Errorf("%w: email already exists", ErrConflict)

	// Sign-in
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuthentication)
	ErrMissingEmail       = fmt.Errorf("%w: identity provider returned no email", ErrAuthentication)

	// Sessions
	ErrInvalidSession = fmt.Errorf("%w: invalid or expired session", ErrAuthentication)

	// Password reset
	ErrUserNotFound      = fmt.Errorf("%w: email not found", ErrNotFound)
	ErrMailDelivery      = fmt.Errorf("%w: failed to send email", ErrInternal)
	ErrMissingResetToken = fmt.Errorf("%w: token is required", ErrValidation)
	ErrInvalidResetToken = fmt.Errorf("%w: invalid or expired reset token", ErrAuthentication)
	ErrPasswordUnchanged = fmt.Errorf("%w: password is already set", ErrConflict)
)

// ValidationError carries one message per offending input field
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// internalError wraps an unexpected collaborator failure
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}
