package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
)

// RuleVersion is the current stored rule format version.
// Increment when making breaking changes to the envelope.
const RuleVersion = 1

// Rule kinds.
const (
	KindRule     = "rule"
	KindCombined = "combined"
)

// ErrVersionMismatch indicates a stored rule was written with a different format version.
var ErrVersionMismatch = errors.New("rule version mismatch")

// Rule is the persisted envelope around a compiled tree.
type Rule struct {
	Version   int               `json:"version"`
	ID        string            `json:"rule_id"`
	Kind      string            `json:"kind"`
	Sources   []string          `json:"sources"`
	AST       *ruleast.Document `json:"ast"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewRule wraps a tree in a fresh envelope. Kind is KindCombined when more
// than one source produced the tree.
func NewRule(id string, tree *ruleast.Node, sources ...string) *Rule {
	kind := KindRule
	if len(sources) > 1 {
		kind = KindCombined
	}
	return &Rule{
		Version:   RuleVersion,
		ID:        id,
		Kind:      kind,
		Sources:   sources,
		AST:       ruleast.ToDocument(tree),
		CreatedAt: time.Now().UTC(),
	}
}

// Marshal serializes a rule to JSON.
func (r *Rule) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Tree rebuilds the compiled tree, validating the document structure.
func (r *Rule) Tree() (*ruleast.Node, error) {
	return ruleast.FromDocument(r.AST)
}

// UnmarshalRule deserializes a rule from JSON.
func UnmarshalRule(data []byte) (*Rule, error) {
	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Version != RuleVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, r.Version, RuleVersion)
	}
	return &r, nil
}

// SaveRule marshals r and saves it under r.ID.
// Returns the number of bytes stored.
func SaveRule(ctx context.Context, s Store, r *Rule) (int64, error) {
	data, err := r.Marshal()
	if err != nil {
		return 0, fmt.Errorf("marshal rule %s: %w", r.ID, err)
	}
	if err := s.Save(ctx, r.ID, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// LoadRule loads and decodes the rule stored under id.
// Decode failures wrap ErrCorruptRule.
func LoadRule(ctx context.Context, s Store, id string) (*Rule, error) {
	data, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := UnmarshalRule(data)
	if err != nil {
		return nil, fmt.Errorf("decode rule %s: %w: %w", id, ErrCorruptRule, err)
	}
	return r, nil
}
