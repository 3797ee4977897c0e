package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/arthur-debert/nanotree/types"
)

// CLIError represents a user-friendly CLI error with context and suggestions
type CLIError struct {
	Operation   string   // The operation that failed (e.g., "move", "delete")
	Cause       string   // The underlying cause (e.g., "node not found")
	Details     string   // Additional technical details
	Suggestions []string // Helpful suggestions for the user
	Underlying  error    // Original error for debugging
}

func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}
	return msg.String()
}

// Unwrap returns the underlying error for error chain compatibility
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError creates an error for a bad flag or argument value.
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewConfigError creates an error for configuration issues
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewDocumentError translates an engine or file error into a CLIError,
// adding suggestions for the error kinds users run into.
func NewDocumentError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "document operation failed"
	var hints []string

	switch {
	case errors.Is(underlying, types.ErrNotFound):
		cause = "node not found"
		hints = []string{CommonSuggestions.CheckID}
	case errors.Is(underlying, types.ErrInvalidID):
		cause = "invalid node ID"
		hints = []string{CommonSuggestions.CheckID}
	case errors.Is(underlying, types.ErrCycleDenied):
		cause = "the change would make a node contain itself"
		hints = []string{CommonSuggestions.CanSelect}
	case errors.Is(underlying, types.ErrReferencedRoot):
		cause = "the type is still referenced"
		hints = []string{
			"Delete or retarget the reference nodes first",
			"Use --dangling-policy warn to delete anyway",
		}
	case errors.Is(underlying, types.ErrTooManySiblings):
		cause = "a level can hold at most 99 nodes"
	case errors.Is(underlying, types.ErrValidation):
		cause = "invalid data provided"
		hints = []string{CommonSuggestions.CheckFlags}
	case errors.Is(underlying, fs.ErrPermission):
		cause = "insufficient permissions to access the document"
		hints = []string{CommonSuggestions.CheckPerms}
	case errors.Is(underlying, fs.ErrNotExist):
		cause = "file not found"
		hints = []string{CommonSuggestions.CheckDoc}
	case errors.Is(underlying, context.DeadlineExceeded):
		cause = "the document is locked by another process"
	}

	details := ""
	if underlying != nil {
		details = underlying.Error()
	}
	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: append(hints, suggestions...),
		Underlying:  underlying,
	}
}

// WrapError wraps an existing error with CLI-friendly context
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}
	return NewDocumentError(operation, err, suggestions...)
}

var CommonSuggestions = struct {
	CheckDoc   string
	CheckID    string
	CheckFlags string
	CheckPerms string
	CanSelect  string
	RunHelp    string
}{
	CheckDoc:   "Verify --doc points to a document file (or set NANOTREE_DOC)",
	CheckID:    "Run 'nanotree show' to list node IDs",
	CheckFlags: "Check command line flags and their values",
	CheckPerms: "Check file permissions and directory access",
	CanSelect:  "Run 'nanotree can-select <node> <type>' before picking a type",
	RunHelp:    "Run command with --help for usage information",
}
