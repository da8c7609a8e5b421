package ruleast

import "strings"

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	strictParens bool
}

// WithStrictParens rejects text whose parentheses do not balance.
//
// Without it, parsing is permissive: unbalanced text that contains no
// top-level connective becomes an operand holding the text verbatim.
func WithStrictParens() ParseOption {
	return func(c *parseConfig) {
		c.strictParens = true
	}
}

// Parse compiles a rule string into a tree.
//
// The split point is the leftmost AND/OR outside parentheses, so
// "A AND B OR C" parses as AND(A, OR(B, C)). Connectives are matched
// case-sensitively as plain substrings, with no word-boundary check.
// Comparators inside operands are not validated here.
func Parse(text string, opts ...ParseOption) (*Node, error) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.strictParens {
		s := strings.TrimSpace(text)
		if off := unbalancedAt(s); off >= 0 {
			return nil, &SyntaxError{Input: s, Offset: off, Err: ErrUnbalancedParens}
		}
	}
	return parse(text)
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level rule literals.
func MustParse(text string, opts ...ParseOption) *Node {
	n, err := Parse(text, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

func parse(text string) (*Node, error) {
	s := stripEnclosingParens(strings.TrimSpace(text))
	if s == "" {
		return nil, &SyntaxError{Input: text, Offset: 0, Err: ErrEmptyOperand}
	}

	idx, op := findConnective(s)
	if op == "" {
		return Condition(s), nil
	}

	leftText := strings.TrimSpace(s[:idx])
	if leftText == "" {
		return nil, &SyntaxError{Input: s, Offset: idx, Err: ErrEmptyOperand}
	}
	rightText := strings.TrimSpace(s[idx+len(op):])
	if rightText == "" {
		return nil, &SyntaxError{Input: s, Offset: idx + len(op), Err: ErrEmptyOperand}
	}

	left, err := parse(leftText)
	if err != nil {
		return nil, err
	}
	right, err := parse(rightText)
	if err != nil {
		return nil, err
	}
	return &Node{kind: KindOperator, value: op, left: left, right: right}, nil
}

// stripEnclosingParens removes outer parenthesis pairs that wrap the whole
// expression. "(a) AND (b)" is left alone because depth returns to zero
// before the last character.
func stripEnclosingParens(s string) string {
	for enclosed(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func enclosed(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && i < len(s)-1 {
			return false
		}
	}
	return depth == 0
}

// findConnective returns the byte offset and symbol of the first AND/OR
// at parenthesis depth zero, or (-1, "") if there is none.
func findConnective(s string) (int, string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		default:
			if depth != 0 {
				continue
			}
			if strings.HasPrefix(s[i:], AND) {
				return i, AND
			}
			if strings.HasPrefix(s[i:], OR) {
				return i, OR
			}
		}
	}
	return -1, ""
}

// unbalancedAt returns the offset of the first unmatched parenthesis, or -1.
func unbalancedAt(s string) int {
	var open []int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) == 0 {
				return i
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return open[0]
	}
	return -1
}
