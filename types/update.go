package types

import "encoding/json"

// NodeUpdate specifies fields to change on a node. Nil fields are left
// untouched; non-nil fields replace the current value wholesale (shallow
// merge). IDs and children are structural and cannot be updated here.
type NodeUpdate struct {
	Name               *string              `json:"name,omitempty"`
	Type               *string              `json:"type,omitempty"`
	Layout             *Layout              `json:"layout,omitempty"`
	Attributes         *map[string]any      `json:"attributes,omitempty"`
	ConstraintPackages *[]ConstraintPackage `json:"constraintPackages,omitempty"`
	Functions          *[]json.RawMessage   `json:"functions,omitempty"`
	MemberVariables    *[]json.RawMessage   `json:"memberVariables,omitempty"`
	Protocols          *[]json.RawMessage   `json:"protocols,omitempty"`
	ReferencedRootType *string              `json:"referencedRootType,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u NodeUpdate) IsEmpty() bool {
	return u.Name == nil && u.Type == nil && u.Layout == nil && u.Attributes == nil &&
		u.ConstraintPackages == nil && u.Functions == nil && u.MemberVariables == nil &&
		u.Protocols == nil && u.ReferencedRootType == nil
}

// Validate checks the update against the node it will be applied to.
func (u NodeUpdate) Validate(target *Node) error {
	if u.Name != nil && *u.Name == "" {
		return NewValidationError("update", target.ID, "name cannot be empty")
	}
	if u.Type != nil && *u.Type == "" {
		return NewValidationError("update", target.ID, "type cannot be empty")
	}
	if u.Layout != nil && !u.Layout.Valid() {
		return NewValidationError("update", target.ID, "unknown layout "+string(*u.Layout))
	}
	if u.ReferencedRootType != nil {
		if !target.IsReference() {
			return NewValidationError("update", target.ID, "referencedRootType is only valid on reference nodes")
		}
		if *u.ReferencedRootType == "" {
			return NewValidationError("update", target.ID, "referencedRootType cannot be empty")
		}
	}
	return nil
}

// Apply merges u into n. Callers validate first.
func (u NodeUpdate) Apply(n *Node) {
	if u.Name != nil {
		n.Name = *u.Name
	}
	if u.Type != nil {
		n.Type = *u.Type
	}
	if u.Layout != nil {
		n.Layout = *u.Layout
	}
	if u.Attributes != nil {
		n.Attributes = cloneAttributes(*u.Attributes)
	}
	if u.ConstraintPackages != nil {
		n.ConstraintPackages = clonePackages(*u.ConstraintPackages)
	}
	if u.Functions != nil {
		n.Functions = cloneRaw(*u.Functions)
	}
	if u.MemberVariables != nil {
		n.MemberVariables = cloneRaw(*u.MemberVariables)
	}
	if u.Protocols != nil {
		n.Protocols = cloneRaw(*u.Protocols)
	}
	if u.ReferencedRootType != nil {
		if ref, ok := n.Content.(*Reference); ok {
			ref.RootType = *u.ReferencedRootType
		}
	}
}
