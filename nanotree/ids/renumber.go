package ids

import (
	"fmt"

	"github.com/arthur-debert/nanotree/types"
)

// Renumbering maps a node's ID before RenumberForest to its ID after. Only
// IDs that changed and that were unique before the pass are recorded;
// an ambiguous old ID cannot say which node it meant.
type Renumbering map[string]string

// Lookup returns the new ID for old, or old itself when it did not change.
func (r Renumbering) Lookup(old string) (string, bool) {
	if next, ok := r[old]; ok {
		return next, true
	}
	return old, false
}

// RenumberForest reassigns every ID in forest from scratch: roots from 01
// upward in order, children from their parent's new ID. Sibling order is
// kept. If any level holds more than MaxSiblings nodes the forest is left
// untouched and an error wrapping types.ErrTooManySiblings is returned.
func RenumberForest(forest []*types.Node) (Renumbering, error) {
	if err := checkSiblingCounts(forest); err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		seen[n.ID]++
		return true
	})

	mapping := make(Renumbering)
	var assign func(n *types.Node, id string)
	assign = func(n *types.Node, id string) {
		if n.ID != id && n.ID != "" && seen[n.ID] == 1 {
			mapping[n.ID] = id
		}
		n.ID = id
		for i, child := range n.Children() {
			// Counts were checked above, so ChildID cannot fail here.
			childID, _ := ChildID(id, i)
			assign(child, childID)
		}
	}
	for i, root := range forest {
		rootID, _ := Segment(i + 1)
		assign(root, rootID)
	}
	return mapping, nil
}

// Consistent reports whether forest satisfies the ID invariant: every root
// has a unique single-segment ID and every subtree is consistent with its
// root. Root IDs need not be contiguous, since the root counter may have
// skipped values.
func Consistent(forest []*types.Node) bool {
	if len(forest) > MaxSiblings {
		return false
	}
	roots := make(map[string]bool, len(forest))
	for _, root := range forest {
		if _, ok := RootSegment(root.ID); !ok || roots[root.ID] {
			return false
		}
		roots[root.ID] = true
		if !SubtreeConsistent(root) {
			return false
		}
	}
	return true
}

// SubtreeConsistent reports whether every descendant of n carries the ID
// its position under n implies. n's own ID must be valid.
func SubtreeConsistent(n *types.Node) bool {
	if !Valid(n.ID) {
		return false
	}
	kids := n.Children()
	if len(kids) > MaxSiblings {
		return false
	}
	for i, child := range kids {
		want, _ := ChildID(n.ID, i)
		if child.ID != want || !SubtreeConsistent(child) {
			return false
		}
	}
	return true
}

func checkSiblingCounts(forest []*types.Node) error {
	if len(forest) > MaxSiblings {
		return fmt.Errorf("%d roots: %w", len(forest), types.ErrTooManySiblings)
	}
	var err error
	types.WalkForest(forest, func(n, _ *types.Node) bool {
		if err != nil {
			return false
		}
		if kids := n.Children(); len(kids) > MaxSiblings {
			err = &types.OpError{
				Op:     "renumber",
				NodeID: n.ID,
				Detail: fmt.Sprintf("%d children", len(kids)),
				Err:    types.ErrTooManySiblings,
			}
			return false
		}
		return true
	})
	return err
}
