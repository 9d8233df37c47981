package domain

import "errors"

var (
	// ErrComponentNotFound is returned when no component has the requested id
	ErrComponentNotFound = errors.New("component not found")

	// ErrHistoryNotFound is returned when no history series exists for an id
	ErrHistoryNotFound = errors.New("history not found")
)

// ValidationError describes rejected client input. Message is safe to
// return to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}
