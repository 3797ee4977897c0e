package types

import (
	"encoding/json"
	"fmt"
)

// Action names the mutation a Command performs.
type Action string

const (
	ActionAdd    Action = "add"
	ActionDelete Action = "delete"
	ActionUpdate Action = "update"
	ActionMove   Action = "move"
)

// Command is one mutation in the vocabulary shared with the assistant.
// Each action maps to exactly one store operation:
//
//	{"action":"add","node":{...},"parentId":"01"}
//	{"action":"delete","nodeId":"0102"}
//	{"action":"update","nodeId":"0102","updates":{"name":"Title"}}
//	{"action":"move","nodeId":"0102","newParentId":"02"}
type Command struct {
	Action      Action      `json:"action"`
	Node        *Node       `json:"node,omitempty"`
	ParentID    string      `json:"parentId,omitempty"`
	NodeID      string      `json:"nodeId,omitempty"`
	Updates     *NodeUpdate `json:"updates,omitempty"`
	NewParentID string      `json:"newParentId,omitempty"`
}

// AddCommand creates an add command. An empty parentID lets the store
// derive the parent from the node's ID.
func AddCommand(node *Node, parentID string) Command {
	return Command{Action: ActionAdd, Node: node, ParentID: parentID}
}

// DeleteCommand creates a delete command.
func DeleteCommand(nodeID string) Command {
	return Command{Action: ActionDelete, NodeID: nodeID}
}

// UpdateCommand creates an update command.
func UpdateCommand(nodeID string, updates NodeUpdate) Command {
	return Command{Action: ActionUpdate, NodeID: nodeID, Updates: &updates}
}

// MoveCommand creates a move command.
func MoveCommand(nodeID, newParentID string) Command {
	return Command{Action: ActionMove, NodeID: nodeID, NewParentID: newParentID}
}

// Validate checks that the fields required by the action are present.
func (c Command) Validate() error {
	switch c.Action {
	case ActionAdd:
		if c.Node == nil {
			return NewValidationError("add", "", "command has no node")
		}
	case ActionDelete:
		if c.NodeID == "" {
			return NewValidationError("delete", "", "command has no nodeId")
		}
	case ActionUpdate:
		if c.NodeID == "" {
			return NewValidationError("update", "", "command has no nodeId")
		}
		if c.Updates == nil {
			return NewValidationError("update", c.NodeID, "command has no updates")
		}
	case ActionMove:
		if c.NodeID == "" || c.NewParentID == "" {
			return NewValidationError("move", c.NodeID, "command needs nodeId and newParentId")
		}
	default:
		return NewValidationError(string(c.Action), c.NodeID, fmt.Sprintf("unknown action %q", c.Action))
	}
	return nil
}

// DecodeCommands parses either a single command object or an array of
// commands.
func DecodeCommands(data []byte) ([]Command, error) {
	var batch []Command
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}
	var single Command
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse commands: %w", err)
	}
	return []Command{single}, nil
}
