package store

import (
	"fmt"

	"github.com/arthur-debert/nanotree/nanotree/ids"
	"github.com/arthur-debert/nanotree/types"
)

// Apply dispatches one command to the matching operation. An add without
// parentId goes under the parent implied by the node's ID, or becomes a
// root when the ID has a single segment.
func (s *Session) Apply(cmd types.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	switch cmd.Action {
	case types.ActionAdd:
		parentID := cmd.ParentID
		if parentID == "" {
			parentID, _ = ids.ParentID(cmd.Node.ID)
		}
		if parentID == "" {
			return s.AddRoot(cmd.Node)
		}
		return s.AddChild(parentID, cmd.Node)
	case types.ActionDelete:
		return s.DeleteNode(cmd.NodeID)
	case types.ActionUpdate:
		return s.UpdateNode(cmd.NodeID, *cmd.Updates)
	case types.ActionMove:
		return s.MoveNode(cmd.NodeID, cmd.NewParentID)
	default:
		return types.NewValidationError(string(cmd.Action), cmd.NodeID, fmt.Sprintf("unknown action %q", cmd.Action))
	}
}

// ApplyBatch applies cmds in order and stops at the first failure. It
// returns how many commands were applied. Commands applied before the
// failure stay applied.
func (s *Session) ApplyBatch(cmds []types.Command) (int, error) {
	for i, cmd := range cmds {
		if err := s.Apply(cmd); err != nil {
			return i, fmt.Errorf("command %d (%s): %w", i+1, cmd.Action, err)
		}
	}
	return len(cmds), nil
}
