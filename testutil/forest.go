// Package testutil holds fixtures and assertions shared by the nanotree
// test suites.
package testutil

import (
	_ "embed"
	"testing"

	"github.com/arthur-debert/nanotree/types"
)

//go:embed testdata/screens.json
var screensJSON []byte

// Screens returns a fresh copy of the sample document:
//
//	01 Card                 vertical
//	   0101 Title
//	   0102 Body            top -> 0101
//	02 Page                 vertical
//	   0201 Header          horizontal
//	        020101 Logo
//	   0202 CardSlot        reference to Card
//	   0203 Footer          top -> 0201
//	03 Settings
//	   0301 Toggle          leading -> 0203
func Screens(t testing.TB) []*types.Node {
	t.Helper()
	forest, err := types.DecodeDocument(screensJSON)
	if err != nil {
		t.Fatalf("failed to decode screens fixture: %v", err)
	}
	return forest
}

// ScreensJSON returns the raw fixture document.
func ScreensJSON() []byte {
	return append([]byte(nil), screensJSON...)
}

// Node builds a standard node for tests.
func Node(id, name, typ string, children ...*types.Node) *types.Node {
	return types.NewStandard(id, name, typ, children...)
}

// Ref builds a reference node for tests.
func Ref(id, name, rootType string) *types.Node {
	return types.NewReference(id, name, rootType, rootType)
}

// Pin adds a default constraint package on n pointing at target.
func Pin(n *types.Node, target string) *types.Node {
	n.ConstraintPackages = append(n.ConstraintPackages, types.ConstraintPackage{
		Name:      "default",
		IsDefault: true,
		Constraints: []types.Constraint{{
			Type:      "top",
			Relation:  "equal",
			Reference: &types.ConstraintReference{NodeID: target, Attribute: "bottom"},
		}},
	})
	return n
}

// PinTarget returns the reference of the first constraint of n, or "".
func PinTarget(n *types.Node) string {
	for _, pkg := range n.ConstraintPackages {
		for _, c := range pkg.Constraints {
			if c.Reference != nil {
				return c.Reference.NodeID
			}
		}
	}
	return ""
}
