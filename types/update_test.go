package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestNodeUpdateValidate(t *testing.T) {
	standard := NewStandard("0101", "Title", "Label")
	ref := NewReference("0202", "Slot", "Card", "Card")

	tests := []struct {
		name   string
		update NodeUpdate
		target *Node
		ok     bool
	}{
		{"rename", NodeUpdate{Name: ptr("Heading")}, standard, true},
		{"empty name", NodeUpdate{Name: ptr("")}, standard, false},
		{"empty type", NodeUpdate{Type: ptr("")}, standard, false},
		{"known layout", NodeUpdate{Layout: ptr(LayoutHorizontal)}, standard, true},
		{"clear layout", NodeUpdate{Layout: ptr(LayoutNone)}, standard, true},
		{"unknown layout", NodeUpdate{Layout: ptr(Layout("grid"))}, standard, false},
		{"retarget reference", NodeUpdate{ReferencedRootType: ptr("Page")}, ref, true},
		{"retarget standard", NodeUpdate{ReferencedRootType: ptr("Page")}, standard, false},
		{"empty target", NodeUpdate{ReferencedRootType: ptr("")}, ref, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.Validate(tt.target)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNodeUpdateApply(t *testing.T) {
	n := NewReference("0202", "Slot", "Card", "Card")
	n.Attributes = map[string]any{"a": 1.0}

	attrs := map[string]any{"b": 2.0}
	fns := []json.RawMessage{json.RawMessage(`{"name":"f"}`)}
	u := NodeUpdate{
		Name:               ptr("Preview"),
		Attributes:         &attrs,
		Functions:          &fns,
		ReferencedRootType: ptr("Page"),
	}
	if u.IsEmpty() {
		t.Fatal("update is not empty")
	}
	u.Apply(n)

	if n.Name != "Preview" || n.Type != "Card" || n.RootType() != "Page" {
		t.Errorf("unexpected node after apply: %s %s %s", n.Name, n.Type, n.RootType())
	}
	if _, ok := n.Attributes["a"]; ok {
		t.Error("attributes are replaced, not merged")
	}
	attrs["b"] = 3.0
	if n.Attributes["b"] != 2.0 {
		t.Error("applied attributes must not alias the update")
	}
	if len(n.Functions) != 1 {
		t.Error("functions not applied")
	}
	if !(NodeUpdate{}).IsEmpty() {
		t.Error("zero update is empty")
	}
}
