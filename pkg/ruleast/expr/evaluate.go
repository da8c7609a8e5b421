package expr

import (
	"strconv"
	"strings"
)

// Condition is a tokenized operand.
type Condition struct {
	Field    string
	Operator string
	Literal  string
}

// ParseCondition tokenizes raw condition text.
// The comparator is checked before the literal is required, so "x ?? "
// reports the operator rather than the missing value.
func ParseCondition(raw string) (Condition, error) {
	tokens := strings.Fields(raw)
	if len(tokens) < 2 {
		return Condition{}, &MalformedConditionError{Condition: raw, Tokens: len(tokens)}
	}

	op := tokens[1]
	if !IsComparator(op) {
		return Condition{}, &UnsupportedOperatorError{Operator: op, Condition: raw}
	}

	if len(tokens) < 3 {
		return Condition{}, &MalformedConditionError{Condition: raw, Tokens: len(tokens)}
	}

	return Condition{
		Field:    tokens[0],
		Operator: op,
		Literal:  Unquote(strings.Join(tokens[2:], " ")),
	}, nil
}

// Eval evaluates the condition against a record.
func (c Condition) Eval(record map[string]any) bool {
	actual, ok := record[c.Field]
	if !ok {
		return false
	}

	var literal any = c.Literal
	if IsNumeric(actual) {
		f, err := strconv.ParseFloat(c.Literal, 64)
		if err != nil {
			return false
		}
		literal = f
	}

	// The operator was validated by ParseCondition.
	result, _ := Compare(actual, literal, c.Operator)
	return result
}

// EvalCondition tokenizes raw and evaluates it against record.
func EvalCondition(raw string, record map[string]any) (bool, error) {
	c, err := ParseCondition(raw)
	if err != nil {
		return false, err
	}
	return c.Eval(record), nil
}
