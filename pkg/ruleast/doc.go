/*
Package ruleast compiles boolean rule strings into binary trees, combines
several rules into one, and evaluates trees against records.

# Overview

A rule is text such as

	(age > 30 AND department = 'Sales') OR (age < 25 AND department = 'Marketing')

Parse turns it into a tree of immutable Nodes. Operator nodes hold AND or OR
and exactly two children; operand nodes hold the raw condition text and no
children. Conditions are not tokenized when parsing, only when evaluated
(see package expr).

# Parsing

Parse strips parentheses that enclose the whole input, then
splits at the leftmost AND or OR that is not inside parentheses. Connectives
are matched as plain substrings, so "BRAND = 'x'" splits at the AND inside
"BRAND". Text with no top-level connective becomes an operand.

	tree, err := ruleast.Parse("age > 30 AND salary > 50000")

A connective with nothing on one side is a *SyntaxError wrapping
ErrEmptyOperand. Unbalanced parentheses are kept as literal text by default;
WithStrictParens rejects them with ErrUnbalancedParens.

# Combining

Combine parses several rules and merges them. Rules containing the group
term (DefaultGroupTerm, "department") anywhere in their conditions are
OR-ed together, the rest are AND-ed, and the two groups are joined with AND:

	tree, err := ruleast.Combine([]string{
	    "department = 'Sales'",
	    "age > 30",
	    "department = 'Marketing'",
	})
	// ((department = 'Sales' OR department = 'Marketing') AND age > 30)

# Evaluation

Evaluate walks the tree against a map[string]any record. A missing field
makes its condition false. Both sides of every connective are evaluated, so
an unsupported comparator anywhere in the tree is reported as an error.
Trees are safe to evaluate from many goroutines.

# Documents

Document is the serialized form used by stores and the HTTP API:

	{"kind": "operator", "value": "AND", "left": {...}, "right": {...}}

Node implements json and yaml (un)marshalers through Document, and
FromDocument rejects structural violations with a *DocumentError naming the
path of the offending node.
*/
package ruleast
