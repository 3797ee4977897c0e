package refgraph

import (
	"fmt"

	"github.com/arthur-debert/nanotree/types"
)

// Decision is the answer to CanSelectType. Reason explains a denial and is
// meant to be shown to the user as-is.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// CanSelectType decides whether the node currentNodeID may alias the root
// registered as targetTypeName. A reference embeds the target's subtree
// inline, so the target must neither contain the node nor be contained by
// it, directly or through other references.
func (g *Graph) CanSelectType(currentNodeID, targetTypeName string, forest []*types.Node) Decision {
	targetRootID, ok := g.Resolve(targetTypeName)
	if !ok {
		return deny("type %q does not exist", targetTypeName)
	}
	if currentNodeID == targetRootID {
		return deny("node %s cannot reference its own type %q", currentNodeID, targetTypeName)
	}
	if types.FindNode(forest, currentNodeID) == nil {
		return deny("node %s does not exist", currentNodeID)
	}
	if IsAncestorOrSelf(targetRootID, currentNodeID, forest) {
		return deny("type %q contains node %s", targetTypeName, currentNodeID)
	}
	if IsAncestorOrSelf(currentNodeID, targetRootID, forest) {
		return deny("node %s contains type %q", currentNodeID, targetTypeName)
	}
	container := types.FindRootFor(forest, currentNodeID)
	if container != nil && g.reaches(targetRootID, container.ID, forest) {
		return deny("type %q already embeds node %s through another reference", targetTypeName, currentNodeID)
	}
	return allow()
}

// IsAncestorOrSelf reports whether descendantID is ancestorID or lies in
// its owned subtree. The search is bounded to the ancestor's subtree.
func IsAncestorOrSelf(ancestorID, descendantID string, forest []*types.Node) bool {
	ancestor := types.FindNode(forest, ancestorID)
	if ancestor == nil {
		return false
	}
	return types.Contains(ancestor, descendantID)
}

// reaches reports whether expanding the root fromRootID eventually embeds
// the root toRootID, following reference nodes transitively.
func (g *Graph) reaches(fromRootID, toRootID string, forest []*types.Node) bool {
	visited := make(map[string]bool)
	var visit func(rootID string) bool
	visit = func(rootID string) bool {
		if rootID == toRootID {
			return true
		}
		if visited[rootID] {
			return false
		}
		visited[rootID] = true
		root := types.FindNode(forest, rootID)
		if root == nil {
			return false
		}
		found := false
		types.Walk(root, func(n, _ *types.Node) bool {
			if found {
				return false
			}
			if n.IsReference() {
				if next, ok := g.Resolve(n.RootType()); ok && visit(next) {
					found = true
				}
			}
			return true
		})
		return found
	}
	return visit(fromRootID)
}
