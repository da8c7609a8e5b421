package expr

import (
	"errors"
	"fmt"
)

// Sentinel errors for condition evaluation.
var (
	// ErrUnsupportedOperator indicates a comparator outside the supported set.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrMalformedCondition indicates a condition without field, comparator and literal.
	ErrMalformedCondition = errors.New("malformed condition")
)

// UnsupportedOperatorError reports the offending comparator and condition.
type UnsupportedOperatorError struct {
	Operator  string
	Condition string
}

// Error implements the error interface.
func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q in condition %q", e.Operator, e.Condition)
}

// Unwrap returns ErrUnsupportedOperator for errors.Is support.
func (e *UnsupportedOperatorError) Unwrap() error {
	return ErrUnsupportedOperator
}

// MalformedConditionError reports a condition with too few tokens.
type MalformedConditionError struct {
	Condition string
	Tokens    int
}

// Error implements the error interface.
func (e *MalformedConditionError) Error() string {
	return fmt.Sprintf("malformed condition %q: expected \"<field> <comparator> <value>\", got %d token(s)",
		e.Condition, e.Tokens)
}

// Unwrap returns ErrMalformedCondition for errors.Is support.
func (e *MalformedConditionError) Unwrap() error {
	return ErrMalformedCondition
}
