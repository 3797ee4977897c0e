package store

import (
	"fmt"
	"log/slog"

	"github.com/arthur-debert/nanotree/types"
)

// Policy decides what deleting a root does to reference nodes elsewhere
// that still alias its type.
type Policy int

const (
	// PolicyWarn lets the delete proceed; the references become stale and
	// are reported through Diagnostics.
	PolicyWarn Policy = iota
	// PolicyReject refuses the delete with types.ErrReferencedRoot.
	PolicyReject
)

func (p Policy) String() string {
	switch p {
	case PolicyWarn:
		return "warn"
	case PolicyReject:
		return "reject"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "warn" or "reject" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "warn":
		return PolicyWarn, nil
	case "reject":
		return PolicyReject, nil
	default:
		return PolicyWarn, fmt.Errorf("unknown dangling policy %q (want warn or reject)", s)
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Sessions log nothing by default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDanglingPolicy sets how root deletions treat live references.
func WithDanglingPolicy(p Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithForest seeds the session with forest, as if SetTree had been called.
func WithForest(forest []*types.Node) Option {
	return func(s *Session) {
		s.seed = forest
	}
}
