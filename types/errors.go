package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a nanotree operation wraps exactly
// one of these, so callers can branch with errors.Is.
var (
	// ErrValidation indicates a malformed node, update or command.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that the addressed node does not exist.
	ErrNotFound = errors.New("node not found")

	// ErrCycleDenied indicates that a reference or move would make a node
	// contain its own container.
	ErrCycleDenied = errors.New("cycle denied")

	// ErrTooManySiblings indicates that a level would exceed 99 siblings,
	// the ceiling of a 2-digit ID segment.
	ErrTooManySiblings = errors.New("too many siblings")

	// ErrReferencedRoot indicates a root deletion rejected because
	// reference nodes elsewhere still alias it.
	ErrReferencedRoot = errors.New("root is still referenced")

	// ErrInvalidID indicates a string that is not a hierarchical ID.
	ErrInvalidID = errors.New("invalid hierarchical id")
)

// OpError records the operation and node an error kind applies to.
type OpError struct {
	Op     string // operation, e.g. "move"
	NodeID string // node the operation addressed, may be empty
	Detail string // human-readable context
	Err    error  // one of the Err* kinds
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.NodeID != "" {
		msg += fmt.Sprintf(" %q", e.NodeID)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap allows errors.Is against the error kind.
func (e *OpError) Unwrap() error {
	return e.Err
}

// NewValidationError creates an ErrValidation for op on nodeID.
func NewValidationError(op, nodeID, detail string) *OpError {
	return &OpError{Op: op, NodeID: nodeID, Detail: detail, Err: ErrValidation}
}

// NewNotFoundError creates an ErrNotFound for op on nodeID.
func NewNotFoundError(op, nodeID string) *OpError {
	return &OpError{Op: op, NodeID: nodeID, Err: ErrNotFound}
}

// NewCycleError creates an ErrCycleDenied carrying the denial reason.
func NewCycleError(op, nodeID, reason string) *OpError {
	return &OpError{Op: op, NodeID: nodeID, Detail: reason, Err: ErrCycleDenied}
}
