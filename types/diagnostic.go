package types

import "fmt"

// Severity indicates whether a diagnostic marks a broken invariant or is
// merely advisory.
type Severity int

const (
	SeverityError   Severity = iota // invariant violated
	SeverityWarning                 // tolerated, but worth surfacing
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic describes a single lint finding on the tree.
type Diagnostic struct {
	NodeID   string   `json:"nodeId"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Diagnostic codes.
const (
	CodeStaleReference = "stale-reference"
	CodeReferenceCycle = "reference-cycle"
)

func (d Diagnostic) String() string {
	if d.NodeID == "" {
		return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", d.Severity, d.NodeID, d.Message)
}

// MarshalText renders the severity by name in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}
