package store

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/nanotree/nanotree/ids"
	"github.com/arthur-debert/nanotree/nanotree/refgraph"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/types"
)

// SetTree replaces the forest outright. A forest whose IDs are not
// consistent is renumbered first. The selection survives only if its ID
// still exists and no renumbering took place. A forest containing a
// reference cycle is rejected.
func (s *Session) SetTree(forest []*types.Node) error {
	for i, root := range forest {
		if root == nil {
			return types.NewValidationError("set tree", "", fmt.Sprintf("root %d is nil", i))
		}
	}
	return s.mutate("set tree", "", func(tx *txn) error {
		tx.forest = types.CloneForest(forest)
		tx.replaced = true
		tx.renumber = !ids.Consistent(tx.forest)
		return nil
	})
}

// AddRoot appends node, with its subtree, as the last root. The node's ID
// is kept when it is a free root ID and its subtree is consistent with it;
// otherwise the forest is renumbered after the insertion.
func (s *Session) AddRoot(node *types.Node) error {
	if err := validateNewNode("add", node); err != nil {
		return err
	}
	return s.mutate("add", node.ID, func(tx *txn) error {
		if holder := rootNamed(tx.forest, node.Name); holder != nil {
			return types.NewValidationError("add", node.ID,
				fmt.Sprintf("root %s is already named %q", holder.ID, node.Name))
		}
		n := node.Clone()
		if ids.Depth(n.ID) != 1 || rootIDTaken(tx.forest, n.ID) || !ids.SubtreeConsistent(n) {
			tx.renumber = true
		}
		tx.forest = append(tx.forest, n)
		tx.addedRoot = n
		return nil
	})
}

// AddChild appends node, with its subtree, as the last child of parentID.
// The node's ID is kept when it equals the ID that position implies and
// its subtree is consistent with it; otherwise the forest is renumbered.
func (s *Session) AddChild(parentID string, node *types.Node) error {
	if err := validateNewNode("add", node); err != nil {
		return err
	}
	return s.mutate("add", node.ID, func(tx *txn) error {
		parent := types.FindNode(tx.forest, parentID)
		if parent == nil {
			return types.NewNotFoundError("add", parentID)
		}
		if parent.IsReference() {
			return types.NewValidationError("add", parentID, "reference nodes cannot own children")
		}
		want, err := ids.ChildID(parent.ID, len(parent.Children()))
		if err != nil {
			return &types.OpError{Op: "add", NodeID: parentID, Err: err}
		}
		n := node.Clone()
		if n.ID != want || !ids.SubtreeConsistent(n) {
			tx.renumber = true
		}
		return parent.AppendChild(n)
	})
}

// NextRootID hands out the next root ID and advances the root counter.
func (s *Session) NextRootID() (string, error) {
	return storage.ExecuteWithResult(s.lm, storage.WriteOperation, func() (string, error) {
		return s.codec.NextRootID()
	})
}

// NextChildID returns the ID a child appended to parentID would get.
func (s *Session) NextChildID(parentID string) (string, error) {
	return storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() (string, error) {
		parent := types.FindNode(s.forest, parentID)
		if parent == nil {
			return "", types.NewNotFoundError("next child id", parentID)
		}
		if parent.IsReference() {
			return "", types.NewValidationError("next child id", parentID, "reference nodes cannot own children")
		}
		return ids.ChildID(parent.ID, len(parent.Children()))
	})
}

// UpdateNode shallow-merges u into the node id. Renaming a root renames its
// type: reference nodes aliasing the old name follow it. Pointing a
// reference node at another type is checked against the cycle rules.
func (s *Session) UpdateNode(id string, u types.NodeUpdate) error {
	return s.mutate("update", id, func(tx *txn) error {
		n, parent := types.FindWithParent(tx.forest, id)
		if n == nil {
			return types.NewNotFoundError("update", id)
		}
		if u.IsEmpty() {
			tx.noop = true
			return nil
		}
		if err := u.Validate(n); err != nil {
			return err
		}

		if u.ReferencedRootType != nil && *u.ReferencedRootType != n.RootType() {
			target := *u.ReferencedRootType
			if _, ok := s.graph.Resolve(target); !ok {
				return types.NewValidationError("update", id, fmt.Sprintf("type %q does not exist", target))
			}
			if d := s.graph.CanSelectType(id, target, tx.forest); !d.Allowed {
				return types.NewCycleError("update", id, d.Reason)
			}
		}

		oldName := n.Name
		renamed := parent == nil && u.Name != nil && *u.Name != oldName
		if renamed {
			if holder := rootNamed(tx.forest, *u.Name); holder != nil {
				return types.NewValidationError("update", id,
					fmt.Sprintf("root %s is already named %q", holder.ID, *u.Name))
			}
		}

		u.Apply(n)

		if renamed {
			tx.renames = append(tx.renames, rootRename{id: n.ID, oldName: oldName, newName: n.Name})
			if owner, ok := s.graph.Resolve(oldName); ok && owner == n.ID {
				retarget(tx.forest, oldName, n.Name)
			}
		}
		return nil
	})
}

// DeleteNode removes id and its subtree. Deleting a root whose type is
// still aliased elsewhere is governed by the session's Policy.
func (s *Session) DeleteNode(id string) error {
	return s.mutate("delete", id, func(tx *txn) error {
		n, parent := types.FindWithParent(tx.forest, id)
		if n == nil {
			return types.NewNotFoundError("delete", id)
		}
		if parent == nil {
			if err := s.retractRoot(tx, n); err != nil {
				return err
			}
		}
		tx.forest, _ = types.RemoveNode(tx.forest, id)
		tx.renumber = true
		return nil
	})
}

// MoveNode detaches id and appends it as the last child of newParentID.
// Moving a root under another node retracts its type like a delete would.
// Moving the last child onto its own parent changes nothing and is not
// broadcast.
func (s *Session) MoveNode(id, newParentID string) error {
	return s.mutate("move", id, func(tx *txn) error {
		n, parent := types.FindWithParent(tx.forest, id)
		if n == nil {
			return types.NewNotFoundError("move", id)
		}
		target := types.FindNode(tx.forest, newParentID)
		if target == nil {
			return types.NewNotFoundError("move", newParentID)
		}
		if types.Contains(n, newParentID) {
			return types.NewCycleError("move", id, fmt.Sprintf("%s is %s or one of its descendants", newParentID, id))
		}
		if target.IsReference() {
			return types.NewValidationError("move", newParentID, "reference nodes cannot own children")
		}
		if parent != nil && parent.ID == newParentID {
			if siblings := parent.Children(); siblings[len(siblings)-1] == n {
				tx.noop = true
				return nil
			}
		}
		if parent == nil {
			if err := s.retractRoot(tx, n); err != nil {
				return err
			}
		}
		var detached *types.Node
		tx.forest, detached = types.RemoveNode(tx.forest, id)
		if err := target.AppendChild(detached); err != nil {
			return err
		}
		tx.renumber = true
		return nil
	})
}

// retractRoot applies the dangling policy to root leaving the root list.
func (s *Session) retractRoot(tx *txn, root *types.Node) error {
	name, ok := s.graph.NameOf(root.ID)
	if !ok {
		return nil
	}
	holders := refgraph.ReferencesTo(tx.forest, name, root.ID)
	if len(holders) > 0 {
		if s.policy == PolicyReject {
			return &types.OpError{
				Op:     tx.op,
				NodeID: root.ID,
				Detail: fmt.Sprintf("type %q is referenced by %s", name, strings.Join(holders, ", ")),
				Err:    types.ErrReferencedRoot,
			}
		}
		s.logger.Warn("removing a referenced type", "op", tx.op, "root", root.ID, "type", name, "holders", holders)
	}
	tx.deleted = append(tx.deleted, deletedRoot{id: root.ID, name: name})
	return nil
}

func validateNewNode(op string, n *types.Node) error {
	if n == nil {
		return types.NewValidationError(op, "", "node is nil")
	}
	if n.ID == "" {
		return types.NewValidationError(op, "", "node id is required")
	}
	var err error
	types.Walk(n, func(node, _ *types.Node) bool {
		if err != nil {
			return false
		}
		switch {
		case node.Name == "":
			err = types.NewValidationError(op, node.ID, "node name is required")
		case node.Type == "":
			err = types.NewValidationError(op, node.ID, "node type is required")
		case !node.Layout.Valid():
			err = types.NewValidationError(op, node.ID, "unknown layout "+string(node.Layout))
		case node.IsReference() && node.RootType() == "":
			err = types.NewValidationError(op, node.ID, "reference node has no referenced type")
		}
		return err == nil
	})
	return err
}

func rootNamed(forest []*types.Node, name string) *types.Node {
	for _, root := range forest {
		if root.Name == name {
			return root
		}
	}
	return nil
}

func rootIDTaken(forest []*types.Node, id string) bool {
	for _, root := range forest {
		if root.ID == id {
			return true
		}
	}
	return false
}

func retarget(forest []*types.Node, oldName, newName string) {
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		if ref, ok := n.Content.(*types.Reference); ok && ref.RootType == oldName {
			ref.RootType = newName
		}
		return true
	})
}
