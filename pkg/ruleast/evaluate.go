package ruleast

import (
	"fmt"

	"github.com/randalmurphal/ruleast/pkg/ruleast/expr"
)

// Evaluate walks the tree against a record and returns the verdict.
//
// Both children of every connective are always evaluated, even when the
// left result already decides the outcome, so an unsupported comparator
// anywhere in the tree is reported. The first error encountered in
// left-to-right order is returned.
func Evaluate(n *Node, record map[string]any) (bool, error) {
	if n == nil {
		return false, ErrNilNode
	}

	if !n.IsOperator() {
		return expr.EvalCondition(n.value, record)
	}

	left, err := Evaluate(n.left, record)
	if err != nil {
		return false, err
	}
	right, err := Evaluate(n.right, record)
	if err != nil {
		return false, err
	}

	switch n.value {
	case AND:
		return left && right, nil
	case OR:
		return left || right, nil
	default:
		return false, fmt.Errorf("%w: unknown connective %q", ErrInvalidNode, n.value)
	}
}

// Validate checks every operand of the tree for a supported comparator and
// a complete field/comparator/value shape, without a record.
func Validate(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	var firstErr error
	n.Walk(func(node *Node) bool {
		if node.IsOperator() {
			return true
		}
		if _, err := expr.ParseCondition(node.value); err != nil {
			firstErr = err
			return false
		}
		return true
	})
	return firstErr
}
