package ruleast

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the serialized form of a Node used at storage and API boundaries.
//
// An operator document has Value "AND" or "OR" and both children set.
// An operand document has the raw condition as Value and both children null.
type Document struct {
	Kind  Kind      `json:"kind" yaml:"kind"`
	Value string    `json:"value" yaml:"value"`
	Left  *Document `json:"left" yaml:"left"`
	Right *Document `json:"right" yaml:"right"`
}

// ToDocument converts a tree to its document form. A nil tree yields nil.
func ToDocument(n *Node) *Document {
	if n == nil {
		return nil
	}
	return &Document{
		Kind:  n.kind,
		Value: n.value,
		Left:  ToDocument(n.left),
		Right: ToDocument(n.right),
	}
}

// FromDocument rebuilds a tree from its document form, enforcing the
// structural contract at every level.
func FromDocument(d *Document) (*Node, error) {
	return fromDocument(d, "/")
}

func fromDocument(d *Document, path string) (*Node, error) {
	if d == nil {
		return nil, &DocumentError{Path: path, Err: ErrNilNode}
	}

	switch d.Kind {
	case KindOperand:
		if d.Left != nil || d.Right != nil {
			return nil, &DocumentError{Path: path, Err: fmt.Errorf("%w: operand must not have children", ErrInvalidNode)}
		}
		return Condition(d.Value), nil

	case KindOperator:
		if d.Value != AND && d.Value != OR {
			return nil, &DocumentError{Path: path, Err: fmt.Errorf("%w: unknown connective %q", ErrInvalidNode, d.Value)}
		}
		if d.Left == nil || d.Right == nil {
			return nil, &DocumentError{Path: path, Err: fmt.Errorf("%w: operator requires two children", ErrInvalidNode)}
		}
		left, err := fromDocument(d.Left, childPath(path, "left"))
		if err != nil {
			return nil, err
		}
		right, err := fromDocument(d.Right, childPath(path, "right"))
		if err != nil {
			return nil, err
		}
		return &Node{kind: KindOperator, value: d.Value, left: left, right: right}, nil

	default:
		return nil, &DocumentError{Path: path, Err: fmt.Errorf("%w: unknown kind %q", ErrInvalidNode, d.Kind)}
	}
}

func childPath(parent, child string) string {
	if parent == "/" {
		return "/" + child
	}
	return parent + "/" + child
}

// UnmarshalJSON accepts "kind" and, for documents written by older
// services, the legacy "node_type" key.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var raw struct {
		plain
		NodeType Kind `json:"node_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Document(raw.plain)
	if d.Kind == "" {
		d.Kind = raw.NodeType
	}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON, including the legacy key.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	type plain Document
	var raw struct {
		plain    `yaml:",inline"`
		NodeType Kind `yaml:"node_type"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*d = Document(raw.plain)
	if d.Kind == "" {
		d.Kind = raw.NodeType
	}
	return nil
}

// MarshalJSON encodes the node in document form.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToDocument(n))
}

// UnmarshalJSON decodes and validates a document into n.
func (n *Node) UnmarshalJSON(data []byte) error {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	node, err := FromDocument(&d)
	if err != nil {
		return err
	}
	*n = *node
	return nil
}

// MarshalYAML encodes the node in document form.
func (n *Node) MarshalYAML() (any, error) {
	return ToDocument(n), nil
}

// UnmarshalYAML decodes and validates a document into n.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var d Document
	if err := value.Decode(&d); err != nil {
		return err
	}
	node, err := FromDocument(&d)
	if err != nil {
		return err
	}
	*n = *node
	return nil
}
