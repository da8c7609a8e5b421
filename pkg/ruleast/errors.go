package ruleast

import (
	"errors"
	"fmt"
)

// Sentinel errors for parsing.
var (
	// ErrEmptyOperand indicates a connective with nothing on one side, or empty input.
	ErrEmptyOperand = errors.New("empty operand")

	// ErrUnbalancedParens indicates mismatched parentheses (strict parsing only).
	ErrUnbalancedParens = errors.New("unbalanced parentheses")
)

// Sentinel errors for tree construction and decoding.
var (
	// ErrInvalidNode indicates a node that violates the tree invariants.
	ErrInvalidNode = errors.New("invalid node")

	// ErrNilNode indicates a nil tree was passed where one is required.
	ErrNilNode = errors.New("nil tree")
)

// SyntaxError describes rule text the parser cannot reduce to a tree.
type SyntaxError struct {
	// Input is the (sub)expression being parsed when the failure occurred.
	Input string
	// Offset is the byte offset within Input where the problem was detected.
	Offset int
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %v", e.Offset, e.Input, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// DocumentError describes a serialized node that violates the document contract.
type DocumentError struct {
	// Path locates the offending node, e.g. "/left/right". The root is "/".
	Path string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	return fmt.Sprintf("invalid document at %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DocumentError) Unwrap() error {
	return e.Err
}
