package testutil

import (
	"strings"
	"testing"

	"github.com/arthur-debert/nanotree/nanotree/ids"
	"github.com/arthur-debert/nanotree/nanotree/repair"
	"github.com/arthur-debert/nanotree/types"
	"github.com/google/go-cmp/cmp"
)

// IDs lists every ID in depth-first order.
func IDs(forest []*types.Node) []string {
	var out []string
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		out = append(out, n.ID)
		return true
	})
	return out
}

// Outline renders forest as "id:name" pairs in depth-first order, with
// references suffixed by "->Type".
func Outline(forest []*types.Node) []string {
	var out []string
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		line := n.ID + ":" + n.Name
		if n.IsReference() {
			line += "->" + n.RootType()
		}
		out = append(out, line)
		return true
	})
	return out
}

// AssertOutline compares forest against an Outline.
func AssertOutline(t testing.TB, forest []*types.Node, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, Outline(forest)); diff != "" {
		t.Errorf("forest outline mismatch (-want +got):\n%s", diff)
	}
}

// AssertConsistent fails when forest violates the ID invariant.
func AssertConsistent(t testing.TB, forest []*types.Node) {
	t.Helper()
	if !ids.Consistent(forest) {
		t.Errorf("forest ids are not consistent: %s", strings.Join(IDs(forest), " "))
	}
}

// AssertReferencesResolve fails when a constraint reference points at a
// node that does not exist.
func AssertReferencesResolve(t testing.TB, forest []*types.Node) {
	t.Helper()
	for _, target := range repair.References(forest) {
		if types.FindNode(forest, target) == nil {
			t.Errorf("constraint reference %s does not resolve", target)
		}
	}
}

// AssertNamedOnce fails unless exactly one node in forest is called name.
func AssertNamedOnce(t testing.TB, forest []*types.Node, name string) *types.Node {
	t.Helper()
	var found []*types.Node
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		if n.Name == name {
			found = append(found, n)
		}
		return true
	})
	if len(found) != 1 {
		t.Fatalf("expected exactly one node named %q, found %d", name, len(found))
	}
	return found[0]
}

// MustFind returns the node id or fails the test.
func MustFind(t testing.TB, forest []*types.Node, id string) *types.Node {
	t.Helper()
	n := types.FindNode(forest, id)
	if n == nil {
		t.Fatalf("node %s not found in %v", id, IDs(forest))
	}
	return n
}
