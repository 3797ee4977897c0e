package refgraph

import (
	"fmt"

	"github.com/arthur-debert/nanotree/types"
)

// CodeDuplicateType marks a named root shadowed by an earlier root with the
// same name.
const CodeDuplicateType = "duplicate-type"

// Lint inspects every reference node of forest. References to a type that
// is not registered are stale (warning); references that break the cycle
// rules are errors. Roots shadowed by an earlier root of the same name are
// reported as warnings. Findings come in document order.
func (g *Graph) Lint(forest []*types.Node) []types.Diagnostic {
	var diags []types.Diagnostic
	for _, root := range forest {
		if root.Name == "" {
			continue
		}
		if owner, ok := g.Resolve(root.Name); ok && owner != root.ID {
			diags = append(diags, types.Diagnostic{
				NodeID:   root.ID,
				Code:     CodeDuplicateType,
				Message:  fmt.Sprintf("type %q is already defined by root %s", root.Name, owner),
				Severity: types.SeverityWarning,
			})
		}
	}
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		if !n.IsReference() {
			return true
		}
		if _, ok := g.Resolve(n.RootType()); !ok {
			diags = append(diags, types.Diagnostic{
				NodeID:   n.ID,
				Code:     types.CodeStaleReference,
				Message:  fmt.Sprintf("referenced type %q does not exist", n.RootType()),
				Severity: types.SeverityWarning,
			})
			return true
		}
		if d := g.CanSelectType(n.ID, n.RootType(), forest); !d.Allowed {
			diags = append(diags, types.Diagnostic{
				NodeID:   n.ID,
				Code:     types.CodeReferenceCycle,
				Message:  d.Reason,
				Severity: types.SeverityError,
			})
		}
		return true
	})
	return diags
}

// Cycles returns only the error-severity findings of Lint.
func (g *Graph) Cycles(forest []*types.Node) []types.Diagnostic {
	var errs []types.Diagnostic
	for _, d := range g.Lint(forest) {
		if d.Severity == types.SeverityError {
			errs = append(errs, d)
		}
	}
	return errs
}

// ReferencesTo lists the reference nodes of forest that alias typeName,
// skipping those inside the subtree rooted at excludeID.
func ReferencesTo(forest []*types.Node, typeName, excludeID string) []string {
	var holders []string
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		if excludeID != "" && n.ID == excludeID {
			return false
		}
		if n.IsReference() && n.RootType() == typeName {
			holders = append(holders, n.ID)
		}
		return true
	})
	return holders
}

// Expand rehydrates n for display: a reference node becomes a standard copy
// of itself holding copies of the target root's children, with nested
// references expanded the same way. Unresolvable references, and references
// that would re-enter a type already being expanded, stay unexpanded.
func (g *Graph) Expand(n *types.Node) *types.Node {
	return g.expand(n, make(map[string]bool))
}

func (g *Graph) expand(n *types.Node, open map[string]bool) *types.Node {
	switch c := n.Content.(type) {
	case *types.Reference:
		root, ok := g.Root(c.RootType)
		if !ok || open[c.RootType] {
			return n.Clone()
		}
		open[c.RootType] = true
		defer delete(open, c.RootType)

		out := n.Clone()
		kids := make([]*types.Node, 0, len(root.Children()))
		for _, child := range root.Children() {
			kids = append(kids, g.expand(child, open))
		}
		out.Content = &types.Standard{Children: kids}
		return out
	case *types.Standard, nil:
		out := n.Clone()
		kids := n.Children()
		if len(kids) == 0 {
			return out
		}
		expanded := make([]*types.Node, len(kids))
		for i, child := range kids {
			expanded[i] = g.expand(child, open)
		}
		out.Content = &types.Standard{Children: expanded}
		return out
	default:
		panic(fmt.Sprintf("refgraph: unknown node content %T", c))
	}
}
