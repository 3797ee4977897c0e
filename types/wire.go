package types

import (
	"encoding/json"
	"fmt"
)

// wireNode is the document representation of a Node. Reference nodes are
// flagged with isVirtual and always carry an empty children array.
type wireNode struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Type               string              `json:"type"`
	Layout             Layout              `json:"layout,omitempty"`
	Attributes         map[string]any      `json:"attributes,omitempty"`
	ConstraintPackages []ConstraintPackage `json:"constraintPackages,omitempty"`
	Children           []*Node             `json:"children"`
	IsVirtual          bool                `json:"isVirtual,omitempty"`
	ReferencedRootType string              `json:"referencedRootType,omitempty"`
	Functions          []json.RawMessage   `json:"functions,omitempty"`
	MemberVariables    []json.RawMessage   `json:"memberVariables,omitempty"`
	Protocols          []json.RawMessage   `json:"protocols,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	w := wireNode{
		ID:                 n.ID,
		Name:               n.Name,
		Type:               n.Type,
		Layout:             n.Layout,
		Attributes:         n.Attributes,
		ConstraintPackages: n.ConstraintPackages,
		Children:           []*Node{},
		Functions:          n.Functions,
		MemberVariables:    n.MemberVariables,
		Protocols:          n.Protocols,
	}
	switch c := n.Content.(type) {
	case *Standard:
		if len(c.Children) > 0 {
			w.Children = c.Children
		}
	case *Reference:
		w.IsVirtual = true
		w.ReferencedRootType = c.RootType
	case nil:
	default:
		return nil, fmt.Errorf("types: unknown node content %T", c)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Children serialized under a
// reference node are dropped; they are re-derived from the referenced root.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = Node{
		ID:                 w.ID,
		Name:               w.Name,
		Type:               w.Type,
		Layout:             w.Layout,
		Attributes:         w.Attributes,
		ConstraintPackages: w.ConstraintPackages,
		Functions:          w.Functions,
		MemberVariables:    w.MemberVariables,
		Protocols:          w.Protocols,
	}
	if w.IsVirtual {
		n.Content = &Reference{RootType: w.ReferencedRootType}
		return nil
	}
	if len(w.Children) == 0 {
		w.Children = nil
	}
	n.Content = &Standard{Children: w.Children}
	return nil
}

// DecodeDocument parses a JSON document (an array of root nodes).
func DecodeDocument(data []byte) ([]*Node, error) {
	var forest []*Node
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	for i, root := range forest {
		if root == nil {
			return nil, fmt.Errorf("failed to parse document: root %d is null", i)
		}
	}
	return forest, nil
}

// EncodeDocument renders forest as an indented JSON document.
func EncodeDocument(forest []*Node) ([]byte, error) {
	if forest == nil {
		forest = []*Node{}
	}
	data, err := json.MarshalIndent(forest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}
