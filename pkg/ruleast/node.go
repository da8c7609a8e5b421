package ruleast

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a Node.
type Kind string

const (
	// KindOperator is a connective node with two children.
	KindOperator Kind = "operator"
	// KindOperand is a leaf holding raw condition text.
	KindOperand Kind = "operand"
)

// Connective symbols.
const (
	AND = "AND"
	OR  = "OR"
)

// Node is an immutable binary rule tree node.
//
// An operator node holds AND or OR and exactly two children.
// An operand node holds one raw condition string and no children.
// Nodes are never mutated after construction, so a tree may be evaluated
// from many goroutines at once.
type Node struct {
	kind  Kind
	value string
	left  *Node
	right *Node
}

// Condition creates an operand node holding raw condition text.
// The text is kept verbatim; it is only tokenized at evaluation time.
func Condition(text string) *Node {
	return &Node{kind: KindOperand, value: text}
}

// And creates an AND connective. It panics if either child is nil.
func And(left, right *Node) *Node {
	n, err := NewConnective(AND, left, right)
	if err != nil {
		panic(err)
	}
	return n
}

// Or creates an OR connective. It panics if either child is nil.
func Or(left, right *Node) *Node {
	n, err := NewConnective(OR, left, right)
	if err != nil {
		panic(err)
	}
	return n
}

// NewConnective creates a connective node after validating its invariants.
func NewConnective(op string, left, right *Node) (*Node, error) {
	if op != AND && op != OR {
		return nil, fmt.Errorf("%w: unknown connective %q", ErrInvalidNode, op)
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("%w: connective %s requires two children", ErrInvalidNode, op)
	}
	return &Node{kind: KindOperator, value: op, left: left, right: right}, nil
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Value returns the connective symbol or the raw condition text.
func (n *Node) Value() string { return n.value }

// Left returns the left child, nil for operands.
func (n *Node) Left() *Node { return n.left }

// Right returns the right child, nil for operands.
func (n *Node) Right() *Node { return n.right }

// IsOperator reports whether n is a connective node.
func (n *Node) IsOperator() bool { return n.kind == KindOperator }

// Equal reports structural equality of two trees.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.kind != other.kind || n.value != other.value {
		return false
	}
	return n.left.Equal(other.left) && n.right.Equal(other.right)
}

// String renders the tree with explicit grouping, e.g. "(a > 1 AND (b < 2 OR c = 3))".
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if !n.IsOperator() {
		sb.WriteString(n.value)
		return
	}
	sb.WriteByte('(')
	n.left.write(sb)
	sb.WriteByte(' ')
	sb.WriteString(n.value)
	sb.WriteByte(' ')
	n.right.write(sb)
	sb.WriteByte(')')
}

// Walk visits n and its descendants in pre-order.
// Returning false from fn stops the walk; Walk reports whether it ran to completion.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	return n.left.Walk(fn) && n.right.Walk(fn)
}

// Conditions returns the raw text of every operand, left to right.
func (n *Node) Conditions() []string {
	var out []string
	n.Walk(func(node *Node) bool {
		if !node.IsOperator() {
			out = append(out, node.value)
		}
		return true
	})
	return out
}

// Depth returns the number of levels in the tree. An operand has depth 1.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	return 1 + max(n.left.Depth(), n.right.Depth())
}
