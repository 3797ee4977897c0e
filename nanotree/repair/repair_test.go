package repair

import (
	"testing"

	"github.com/arthur-debert/nanotree/nanotree/ids"
	"github.com/arthur-debert/nanotree/types"
	"github.com/google/go-cmp/cmp"
)

func pinTo(nodeID string) []types.ConstraintPackage {
	return []types.ConstraintPackage{{
		Name:      "default",
		IsDefault: true,
		Constraints: []types.Constraint{
			{Type: "top", Relation: "equal", Reference: &types.ConstraintReference{NodeID: nodeID, Attribute: "bottom"}},
			{Type: "height", Relation: "equal"},
		},
	}}
}

func refOf(n *types.Node) string {
	return n.ConstraintPackages[0].Constraints[0].Reference.NodeID
}

func TestRepair(t *testing.T) {
	t.Run("clears dangling references", func(t *testing.T) {
		holder := types.NewStandard("0101", "Caption", "Label")
		holder.ConstraintPackages = pinTo("0203")
		forest := []*types.Node{
			types.NewStandard("01", "Screen", "Screen", holder),
		}

		report := Repair(forest)

		want := []Cleared{{HolderID: "0101", Package: "default", StaleNodeID: "0203"}}
		if diff := cmp.Diff(want, report.Cleared); diff != "" {
			t.Errorf("report mismatch (-want +got):\n%s", diff)
		}
		if got := refOf(holder); got != "" {
			t.Errorf("reference should be cleared, got %q", got)
		}
		if holder.ConstraintPackages[0].Constraints[0].Reference.Attribute != "bottom" {
			t.Error("only the node id is cleared")
		}
	})

	t.Run("keeps resolvable and empty references", func(t *testing.T) {
		a := types.NewStandard("0101", "A", "Label")
		a.ConstraintPackages = pinTo("0102")
		b := types.NewStandard("0102", "B", "Label")
		b.ConstraintPackages = pinTo("")
		forest := []*types.Node{types.NewStandard("01", "Screen", "Screen", a, b)}

		if report := Repair(forest); !report.Empty() {
			t.Errorf("nothing should be cleared, got %v", report.Cleared)
		}
		if refOf(a) != "0102" {
			t.Error("valid reference was modified")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		holder := types.NewStandard("01", "Lonely", "View")
		holder.ConstraintPackages = pinTo("99")
		forest := []*types.Node{holder}

		first := Repair(forest)
		second := Repair(forest)
		if len(first.Cleared) != 1 || !second.Empty() {
			t.Errorf("first=%v second=%v", first.Cleared, second.Cleared)
		}
	})
}

func TestRemap(t *testing.T) {
	a := types.NewStandard("0101", "A", "Label")
	a.ConstraintPackages = pinTo("0103")
	b := types.NewStandard("0102", "B", "Label")
	b.ConstraintPackages = pinTo("0101")
	forest := []*types.Node{types.NewStandard("01", "Screen", "Screen", a, b)}

	n := Remap(forest, ids.Renumbering{"0103": "0102", "0102": "0101"})
	if n != 1 {
		t.Errorf("expected one rewrite, got %d", n)
	}
	if refOf(a) != "0102" {
		t.Errorf("reference should follow the node, got %s", refOf(a))
	}
	if refOf(b) != "0101" {
		t.Errorf("unmapped reference should stay, got %s", refOf(b))
	}
	if Remap(forest, nil) != 0 {
		t.Error("empty mapping rewrites nothing")
	}
}

func TestReferences(t *testing.T) {
	a := types.NewStandard("0101", "A", "Label")
	a.ConstraintPackages = pinTo("0102")
	b := types.NewStandard("0102", "B", "Label")
	b.ConstraintPackages = pinTo("")
	forest := []*types.Node{types.NewStandard("01", "Screen", "Screen", a, b)}

	if diff := cmp.Diff([]string{"0102"}, References(forest)); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}
}
