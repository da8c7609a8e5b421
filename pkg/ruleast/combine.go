package ruleast

import (
	"fmt"
	"strings"
)

// DefaultGroupTerm is the substring that puts a rule into the OR-folded group.
const DefaultGroupTerm = "department"

// CombineOption configures Combine.
type CombineOption func(*combineConfig)

type combineConfig struct {
	groupTerm string
	parseOpts []ParseOption
}

// WithGroupTerm replaces DefaultGroupTerm. An empty term is ignored.
func WithGroupTerm(term string) CombineOption {
	return func(c *combineConfig) {
		if term != "" {
			c.groupTerm = term
		}
	}
}

// WithParseOptions passes options to Parse for every input rule.
func WithParseOptions(opts ...ParseOption) CombineOption {
	return func(c *combineConfig) {
		c.parseOpts = append(c.parseOpts, opts...)
	}
}

// Combine parses every rule and merges the trees into one.
//
// Rules with any operand containing the group term (a plain substring
// match, so "department_id" and literals count too) are folded with OR;
// the rest are folded with AND. Both folds grow left-deep. When both groups
// exist the result is AND(grouped, ungrouped), grouped first regardless of
// input order.
//
// An empty input returns (nil, nil).
func Combine(rules []string, opts ...CombineOption) (*Node, error) {
	cfg := combineConfig{groupTerm: DefaultGroupTerm}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(rules) == 0 {
		return nil, nil
	}

	trees := make([]*Node, 0, len(rules))
	for i, rule := range rules {
		n, err := Parse(rule, cfg.parseOpts...)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		trees = append(trees, n)
	}

	grouped, ungrouped := Classify(trees, cfg.groupTerm)
	groupedFold := fold(grouped, OR)
	ungroupedFold := fold(ungrouped, AND)

	switch {
	case groupedFold != nil && ungroupedFold != nil:
		return And(groupedFold, ungroupedFold), nil
	case groupedFold != nil:
		return groupedFold, nil
	default:
		return ungroupedFold, nil
	}
}

// Classify splits trees by HasTerm, preserving order within each group.
func Classify(trees []*Node, term string) (grouped, ungrouped []*Node) {
	for _, t := range trees {
		if HasTerm(t, term) {
			grouped = append(grouped, t)
		} else {
			ungrouped = append(ungrouped, t)
		}
	}
	return grouped, ungrouped
}

// HasTerm reports whether any operand in n contains term as a substring.
func HasTerm(n *Node, term string) bool {
	found := false
	n.Walk(func(node *Node) bool {
		if !node.IsOperator() && strings.Contains(node.value, term) {
			found = true
			return false
		}
		return true
	})
	return found
}

// fold joins trees left to right: ((t0 op t1) op t2) ...
func fold(trees []*Node, op string) *Node {
	if len(trees) == 0 {
		return nil
	}
	acc := trees[0]
	for _, t := range trees[1:] {
		acc = &Node{kind: KindOperator, value: op, left: acc, right: t}
	}
	return acc
}
