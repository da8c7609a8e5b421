package expr

import (
	"cmp"
	"fmt"
)

// Supported comparators.
const (
	OpGT  = ">"
	OpLT  = "<"
	OpGTE = ">="
	OpLTE = "<="
	OpEQ  = "="
	OpNEQ = "!="
)

// IsComparator reports whether op is one of the six supported comparators.
func IsComparator(op string) bool {
	switch op {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpNEQ:
		return true
	default:
		return false
	}
}

// Compare applies op to two values.
//
// Two numeric values compare as float64 and two strings compare
// lexicographically. Any other pairing compares the fmt rendering of both
// sides. Returns an error for unknown operators.
func Compare(left, right any, op string) (bool, error) {
	if !IsComparator(op) {
		return false, &UnsupportedOperatorError{Operator: op}
	}

	if l, ok := ToFloat64(left); ok {
		if r, ok := ToFloat64(right); ok {
			return compareOrdered(l, r, op), nil
		}
	}

	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return compareOrdered(ls, rs, op), nil
	}

	return compareOrdered(fmt.Sprintf("%v", left), fmt.Sprintf("%v", right), op), nil
}

func compareOrdered[T cmp.Ordered](l, r T, op string) bool {
	switch op {
	case OpGT:
		return l > r
	case OpLT:
		return l < r
	case OpGTE:
		return l >= r
	case OpLTE:
		return l <= r
	case OpEQ:
		return l == r
	case OpNEQ:
		return l != r
	default:
		return false
	}
}
