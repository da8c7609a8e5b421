// Package errors classifies rule service failures and maps them to
// transport responses.
//
// The package implements a layered error handling approach:
//   - Categorization: classify errors by who must act on them
//   - Retry: handle transient store failures with exponential backoff
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
	"github.com/randalmurphal/ruleast/pkg/ruleast/expr"
	"github.com/randalmurphal/ruleast/pkg/ruleast/store"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryInternal indicates a server-side fault.
	// Examples: corrupt stored rules, unexpected store failures.
	CategoryInternal Category = iota

	// CategoryInvalidInput indicates the caller sent something unusable.
	// Examples: syntax errors, unsupported operators, malformed documents.
	CategoryInvalidInput

	// CategoryNotFound indicates the referenced rule does not exist.
	CategoryNotFound

	// CategoryUnavailable indicates retry will likely help.
	// Examples: store closed, Redis unreachable, deadline exceeded.
	CategoryUnavailable
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryInternal:
		return "internal"
	case CategoryInvalidInput:
		return "invalid_input"
	case CategoryNotFound:
		return "not_found"
	case CategoryUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the response status for errors of this category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryInvalidInput:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Attempts is the number of attempts that have been made.
	Attempts int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Attempts)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Attempts)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryInternal // shouldn't happen, fail safe
	}

	// Check for already-categorized errors
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	// Boundary validation
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryInvalidInput
	}

	// Rule text and rule documents
	var synErr *ruleast.SyntaxError
	var docErr *ruleast.DocumentError
	var opErr *expr.UnsupportedOperatorError
	var condErr *expr.MalformedConditionError
	if errors.As(err, &synErr) || errors.As(err, &docErr) ||
		errors.As(err, &opErr) || errors.As(err, &condErr) {
		return CategoryInvalidInput
	}
	if errors.Is(err, ruleast.ErrInvalidNode) || errors.Is(err, ruleast.ErrNilNode) {
		return CategoryInvalidInput
	}

	// Request bodies
	var jsonSyntax *json.SyntaxError
	var jsonType *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError
	if errors.As(err, &jsonSyntax) || errors.As(err, &jsonType) || errors.As(err, &tooLarge) {
		return CategoryInvalidInput
	}

	// Store
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, store.ErrEmptyID):
		return CategoryInvalidInput
	case errors.Is(err, store.ErrStoreClosed), errors.Is(err, store.ErrUnavailable):
		return CategoryUnavailable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryUnavailable
	}

	// Unknown errors are internal (fail safe)
	return CategoryInternal
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	return Categorize(err).HTTPStatus()
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryUnavailable
}

// IsClientError reports whether the caller caused the error.
func IsClientError(err error) bool {
	cat := Categorize(err)
	return cat == CategoryInvalidInput || cat == CategoryNotFound
}
