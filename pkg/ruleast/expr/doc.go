/*
Package expr evaluates single rule conditions against a record.

# Overview

A condition is the raw text held by an operand node of a rule tree. It is
tokenized on whitespace only when evaluated:

	<field> <comparator> <literal...>

Token 0 names a record field, token 1 is the comparator and every remaining
token, joined with single spaces, forms the literal. Leading and trailing
quote characters (' and ") are trimmed from the literal, so quoted literals
may contain spaces:

	department = 'Sales'
	title = "Senior Sales Engineer"

# Comparators

	>    greater than
	<    less than
	>=   greater than or equal
	<=   less than or equal
	=    equal
	!=   not equal

Any other comparator fails with *UnsupportedOperatorError.

# Typing

The record value decides how the literal is read:

  - numeric values (Go integer and float kinds, json.Number) compare
    against the literal parsed as float64; if the literal is not a number
    the condition is false
  - strings compare lexicographically against the literal as written
  - other values compare through their fmt rendering

A field missing from the record makes the condition false. It is not an error.

# Example

	record := map[string]any{"age": 35, "department": "Sales"}
	ok, err := expr.EvalCondition("age > 30", record)             // true, nil
	ok, err = expr.EvalCondition("department = 'Sales'", record)  // true, nil
	ok, err = expr.EvalCondition("age ~ 30", record)              // false, *UnsupportedOperatorError
*/
package expr
