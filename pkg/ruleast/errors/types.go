package errors

import "fmt"

// ValidationError reports a request that fails boundary validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
// The bare message is returned so it can be shown to callers unchanged.
func (e *ValidationError) Error() string {
	return e.Message
}

// Validation creates a ValidationError.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
