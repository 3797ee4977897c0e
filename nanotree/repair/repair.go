// Package repair keeps constraint cross-references pointing at nodes that
// exist. It runs after every structural edit of the forest.
package repair

import (
	"fmt"

	"github.com/arthur-debert/nanotree/nanotree/ids"
	"github.com/arthur-debert/nanotree/types"
)

// Cleared records one constraint reference that was reset.
type Cleared struct {
	HolderID    string `json:"holderId"`
	Package     string `json:"package"`
	StaleNodeID string `json:"staleNodeId"`
}

func (c Cleared) String() string {
	return fmt.Sprintf("%s[%s] -> %s", c.HolderID, c.Package, c.StaleNodeID)
}

// Report lists the references cleared by one Repair call, in document order.
type Report struct {
	Cleared []Cleared `json:"cleared,omitempty"`
}

// Empty reports whether nothing was cleared.
func (r Report) Empty() bool { return len(r.Cleared) == 0 }

// Repair walks every constraint of every owned node and clears reference
// node IDs that do not resolve to a node of forest. Empty references are
// left alone. Running Repair twice clears nothing the second time.
func Repair(forest []*types.Node) Report {
	known := make(map[string]bool)
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		known[n.ID] = true
		return true
	})

	var report Report
	visitReferences(forest, func(holder *types.Node, pkg string, ref *types.ConstraintReference) {
		if ref.NodeID == "" || known[ref.NodeID] {
			return
		}
		report.Cleared = append(report.Cleared, Cleared{
			HolderID:    holder.ID,
			Package:     pkg,
			StaleNodeID: ref.NodeID,
		})
		ref.NodeID = ""
	})
	return report
}

// Remap rewrites constraint references through mapping so they follow the
// nodes they point at across a renumber. It returns the number of
// references rewritten. IDs absent from mapping are left for Repair.
func Remap(forest []*types.Node, mapping ids.Renumbering) int {
	if len(mapping) == 0 {
		return 0
	}
	changed := 0
	visitReferences(forest, func(_ *types.Node, _ string, ref *types.ConstraintReference) {
		if next, ok := mapping[ref.NodeID]; ok && next != ref.NodeID {
			ref.NodeID = next
			changed++
		}
	})
	return changed
}

// References lists every non-empty constraint reference target in forest.
func References(forest []*types.Node) []string {
	var out []string
	visitReferences(forest, func(_ *types.Node, _ string, ref *types.ConstraintReference) {
		if ref.NodeID != "" {
			out = append(out, ref.NodeID)
		}
	})
	return out
}

func visitReferences(forest []*types.Node, fn func(holder *types.Node, pkg string, ref *types.ConstraintReference)) {
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		for i := range n.ConstraintPackages {
			pkg := &n.ConstraintPackages[i]
			for j := range pkg.Constraints {
				if ref := pkg.Constraints[j].Reference; ref != nil {
					fn(n, pkg.Name, ref)
				}
			}
		}
		return true
	})
}
