package store

import (
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes.
const (
	RulePrefix         = "rule_"
	CombinedRulePrefix = "combined_rule_"
)

// NewRuleID returns an identifier for a single-source rule.
func NewRuleID() string {
	return RulePrefix + shortHex()
}

// NewCombinedRuleID returns an identifier for a combined rule.
func NewCombinedRuleID() string {
	return CombinedRulePrefix + shortHex()
}

// shortHex is the first 8 hex digits of a random UUID.
func shortHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
