// Package types defines the node model shared by every nanotree component:
// the tagged union of standard and reference nodes, constraint packages,
// partial updates, the mutation command vocabulary and the error taxonomy.
package types

import (
	"encoding/json"
	"fmt"
)

// Layout is the direction a container lays its children out in.
type Layout string

const (
	LayoutNone       Layout = ""
	LayoutVertical   Layout = "vertical"
	LayoutHorizontal Layout = "horizontal"
)

// Valid reports whether l is one of the known layout directions.
func (l Layout) Valid() bool {
	switch l {
	case LayoutNone, LayoutVertical, LayoutHorizontal:
		return true
	}
	return false
}

// ConstraintReference points a constraint at another node of the tree.
type ConstraintReference struct {
	NodeID    string `json:"nodeId"`
	Attribute string `json:"attribute,omitempty"`
}

// Constraint is a single layout constraint. The engine only cares about
// Reference; the remaining fields are carried for the renderer.
type Constraint struct {
	Type      string               `json:"type"`
	Relation  string               `json:"relation"`
	Value     json.RawMessage      `json:"value"`
	Attribute string               `json:"attribute,omitempty"`
	Reference *ConstraintReference `json:"reference,omitempty"`
}

// ConstraintPackage is a named bundle of constraints attached to a node.
type ConstraintPackage struct {
	Name        string       `json:"name"`
	IsDefault   bool         `json:"isDefault"`
	Constraints []Constraint `json:"constraints"`
}

// Node is one element of the UI tree. What the node holds below it is
// decided by Content, which is either *Standard or *Reference.
type Node struct {
	ID                 string
	Name               string
	Type               string
	Layout             Layout
	Attributes         map[string]any
	ConstraintPackages []ConstraintPackage

	// Opaque payload, preserved as-is.
	Functions       []json.RawMessage
	MemberVariables []json.RawMessage
	Protocols       []json.RawMessage

	Content Content
}

// NodeKind enumerates the two node shapes.
type NodeKind int

const (
	KindStandard  NodeKind = iota // owns its children
	KindReference                 // aliases another root's subtree
)

func (k NodeKind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Content is the kind-specific part of a node.
type Content interface {
	Kind() NodeKind
	content() // restricts implementations to this package
}

// Standard is the content of an ordinary node: an ordered, owned child list.
type Standard struct {
	Children []*Node
}

func (*Standard) Kind() NodeKind { return KindStandard }
func (*Standard) content()       {}

// Reference is the content of a virtual node. It owns no children; its
// subtree is the subtree of the root registered under RootType.
type Reference struct {
	RootType string
}

func (*Reference) Kind() NodeKind { return KindReference }
func (*Reference) content()       {}

// NewStandard returns a standard node with no children.
func NewStandard(id, name, typ string, children ...*Node) *Node {
	return &Node{
		ID:      id,
		Name:    name,
		Type:    typ,
		Content: &Standard{Children: children},
	}
}

// NewReference returns a reference node aliasing the root named rootType.
func NewReference(id, name, typ, rootType string) *Node {
	return &Node{
		ID:      id,
		Name:    name,
		Type:    typ,
		Content: &Reference{RootType: rootType},
	}
}

// Kind returns the node's kind. A node with nil Content is standard.
func (n *Node) Kind() NodeKind {
	if n.Content == nil {
		return KindStandard
	}
	return n.Content.Kind()
}

// IsReference reports whether n is a reference node.
func (n *Node) IsReference() bool {
	return n.Kind() == KindReference
}

// RootType returns the type name a reference node aliases, or "".
func (n *Node) RootType() string {
	if ref, ok := n.Content.(*Reference); ok {
		return ref.RootType
	}
	return ""
}

// Children returns the owned children. Reference nodes own none.
func (n *Node) Children() []*Node {
	switch c := n.Content.(type) {
	case *Standard:
		return c.Children
	case *Reference:
		return nil
	case nil:
		return nil
	default:
		panic(fmt.Sprintf("types: unknown node content %T", c))
	}
}

// SetChildren replaces the child list of a standard node. It fails for
// reference nodes, which cannot own children.
func (n *Node) SetChildren(children []*Node) error {
	switch c := n.Content.(type) {
	case *Standard:
		c.Children = children
		return nil
	case nil:
		n.Content = &Standard{Children: children}
		return nil
	case *Reference:
		return NewValidationError("set children", n.ID, "reference nodes cannot own children")
	default:
		panic(fmt.Sprintf("types: unknown node content %T", c))
	}
}

// AppendChild adds child as the last child of n.
func (n *Node) AppendChild(child *Node) error {
	return n.SetChildren(append(n.Children(), child))
}

// Clone returns a deep copy of n and its owned subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		ID:                 n.ID,
		Name:               n.Name,
		Type:               n.Type,
		Layout:             n.Layout,
		Attributes:         cloneAttributes(n.Attributes),
		ConstraintPackages: clonePackages(n.ConstraintPackages),
		Functions:          cloneRaw(n.Functions),
		MemberVariables:    cloneRaw(n.MemberVariables),
		Protocols:          cloneRaw(n.Protocols),
	}
	switch c := n.Content.(type) {
	case *Standard:
		var kids []*Node
		if c.Children != nil {
			kids = make([]*Node, len(c.Children))
			for i, child := range c.Children {
				kids[i] = child.Clone()
			}
		}
		out.Content = &Standard{Children: kids}
	case *Reference:
		out.Content = &Reference{RootType: c.RootType}
	case nil:
		out.Content = &Standard{}
	default:
		panic(fmt.Sprintf("types: unknown node content %T", c))
	}
	return out
}

// CloneForest deep-copies every root of forest.
func CloneForest(forest []*Node) []*Node {
	if forest == nil {
		return nil
	}
	out := make([]*Node, len(forest))
	for i, root := range forest {
		out[i] = root.Clone()
	}
	return out
}

func cloneAttributes(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the container shapes encoding/json produces.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneAttributes(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func clonePackages(in []ConstraintPackage) []ConstraintPackage {
	if in == nil {
		return nil
	}
	out := make([]ConstraintPackage, len(in))
	for i, pkg := range in {
		out[i] = ConstraintPackage{Name: pkg.Name, IsDefault: pkg.IsDefault}
		if pkg.Constraints != nil {
			out[i].Constraints = make([]Constraint, len(pkg.Constraints))
			for j, c := range pkg.Constraints {
				cc := c
				cc.Value = append(json.RawMessage(nil), c.Value...)
				if c.Reference != nil {
					ref := *c.Reference
					cc.Reference = &ref
				}
				out[i].Constraints[j] = cc
			}
		}
	}
	return out
}

func cloneRaw(in []json.RawMessage) []json.RawMessage {
	if in == nil {
		return nil
	}
	out := make([]json.RawMessage, len(in))
	for i, m := range in {
		out[i] = append(json.RawMessage(nil), m...)
	}
	return out
}
