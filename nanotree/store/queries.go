package store

import (
	"github.com/arthur-debert/nanotree/nanotree/refgraph"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/types"
)

// Read-side accessors. Every node returned is a copy; changing it does not
// change the document.

// Forest returns a copy of the whole forest.
func (s *Session) Forest() []*types.Node {
	out, _ := storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() ([]*types.Node, error) {
		return types.CloneForest(s.forest), nil
	})
	return out
}

// FindNode returns the node with the given ID.
func (s *Session) FindNode(id string) (*types.Node, bool) {
	return s.lookup(func(forest []*types.Node) *types.Node {
		return types.FindNode(forest, id)
	})
}

// FindRootFor returns the root whose subtree contains id.
func (s *Session) FindRootFor(id string) (*types.Node, bool) {
	return s.lookup(func(forest []*types.Node) *types.Node {
		return types.FindRootFor(forest, id)
	})
}

func (s *Session) lookup(find func([]*types.Node) *types.Node) (*types.Node, bool) {
	n, _ := storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() (*types.Node, error) {
		return find(s.forest).Clone(), nil
	})
	return n, n != nil
}

// DescendantIDs lists the IDs below id in depth-first order.
func (s *Session) DescendantIDs(id string) ([]string, error) {
	return storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() ([]string, error) {
		out, ok := types.DescendantIDs(s.forest, id)
		if !ok {
			return nil, types.NewNotFoundError("descendants", id)
		}
		return out, nil
	})
}

// Select makes id the selected node.
func (s *Session) Select(id string) error {
	return s.write(func() (bool, error) {
		if types.FindNode(s.forest, id) == nil {
			return false, types.NewNotFoundError("select", id)
		}
		if s.selectedID == id {
			return false, nil
		}
		s.selectedID = id
		return true, nil
	})
}

// ClearSelection deselects whatever is selected.
func (s *Session) ClearSelection() {
	_ = s.write(func() (bool, error) {
		if s.selectedID == "" {
			return false, nil
		}
		s.selectedID = ""
		return true, nil
	})
}

// Selected returns the current state of the selected node. It tracks the
// node through updates and renumbering.
func (s *Session) Selected() (*types.Node, bool) {
	return s.lookup(func(forest []*types.Node) *types.Node {
		if s.selectedID == "" {
			return nil
		}
		return types.FindNode(forest, s.selectedID)
	})
}

// CanSelectType reports whether the node currentNodeID may become a
// reference to typeName.
func (s *Session) CanSelectType(currentNodeID, typeName string) refgraph.Decision {
	d, _ := storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() (refgraph.Decision, error) {
		return s.graph.CanSelectType(currentNodeID, typeName, s.forest), nil
	})
	return d
}

// Types lists the registered type names, sorted.
func (s *Session) Types() []string {
	out, _ := storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() ([]string, error) {
		return s.graph.Types(), nil
	})
	return out
}

// Expand returns id with every reference below it replaced by a copy of
// the subtree it aliases.
func (s *Session) Expand(id string) (*types.Node, error) {
	return storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() (*types.Node, error) {
		n := types.FindNode(s.forest, id)
		if n == nil {
			return nil, types.NewNotFoundError("expand", id)
		}
		return s.graph.Expand(n), nil
	})
}

// Diagnostics returns the findings of the last commit: stale references
// and shadowed type names.
func (s *Session) Diagnostics() []types.Diagnostic {
	out, _ := storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() ([]types.Diagnostic, error) {
		return append([]types.Diagnostic(nil), s.diags...), nil
	})
	return out
}
