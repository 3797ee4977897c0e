package store

import (
	"github.com/arthur-debert/nanotree/nanotree/ids"
	"github.com/arthur-debert/nanotree/nanotree/refgraph"
	"github.com/arthur-debert/nanotree/nanotree/repair"
	"github.com/arthur-debert/nanotree/types"
)

// txn is one mutation in flight. Operations edit forest, a private clone
// of the committed forest, and record what the commit has to patch.
type txn struct {
	op       string
	nodeID   string
	forest   []*types.Node
	selected string

	renumber bool // IDs must be reassigned before commit
	replaced bool // the whole forest was swapped out
	noop     bool // nothing to commit

	addedRoot *types.Node
	renames   []rootRename
	deleted   []deletedRoot

	mapping ids.Renumbering
	report  repair.Report
}

type rootRename struct {
	id, oldName, newName string
}

type deletedRoot struct {
	id, name string
}

// mutate runs fn against a clone of the forest and commits the result if
// every step succeeds. On error the session is left untouched.
func (s *Session) mutate(op, nodeID string, fn func(tx *txn) error) error {
	return s.write(func() (bool, error) {
		tx := &txn{
			op:       op,
			nodeID:   nodeID,
			forest:   types.CloneForest(s.forest),
			selected: s.selectedID,
		}
		if err := fn(tx); err != nil {
			s.logger.Debug("mutation rejected", "op", op, "node", nodeID, "error", err)
			return false, err
		}
		if tx.noop {
			return false, nil
		}
		graph, err := s.settle(tx)
		if err != nil {
			s.logger.Debug("mutation rejected", "op", op, "node", nodeID, "error", err)
			return false, err
		}
		s.commit(tx, graph)
		return true, nil
	})
}

// settle brings tx.forest back to a state that satisfies every document
// invariant, or fails.
func (s *Session) settle(tx *txn) (*refgraph.Graph, error) {
	// Clear references to removed nodes while the old IDs still mean what
	// they meant, then let the rest follow their nodes through renumbering.
	tx.report = repair.Repair(tx.forest)
	if tx.selected != "" && types.FindNode(tx.forest, tx.selected) == nil {
		tx.selected = ""
	}
	if tx.renumber {
		mapping, err := ids.RenumberForest(tx.forest)
		if err != nil {
			return nil, err
		}
		tx.mapping = mapping
		repair.Remap(tx.forest, mapping)
		if tx.replaced {
			tx.selected = ""
		} else if next, ok := mapping[tx.selected]; ok {
			tx.selected = next
		}
		tx.report.Cleared = append(tx.report.Cleared, repair.Repair(tx.forest).Cleared...)
	}

	graph := refgraph.Build(tx.forest)
	if cycles := graph.Cycles(tx.forest); len(cycles) > 0 {
		return nil, types.NewCycleError(tx.op, cycles[0].NodeID, cycles[0].Message)
	}
	return graph, nil
}

func (s *Session) commit(tx *txn, graph *refgraph.Graph) {
	s.forest = tx.forest
	s.selectedID = tx.selected

	if tx.rootsShifted() || s.shadowedDelete(tx) {
		s.graph = graph
	} else {
		for _, d := range tx.deleted {
			s.graph.HandleRootDelete(d.id)
		}
		for _, r := range tx.renames {
			s.graph.HandleRootRename(r.id, r.oldName, r.newName, s.forest)
		}
		if tx.addedRoot != nil {
			s.graph.HandleRootAdd(tx.addedRoot)
		}
		s.graph.Bind(s.forest)
		if !s.graph.Equal(graph) {
			s.logger.Warn("type registry patch diverged, using rebuilt registry", "op", tx.op)
			s.graph = graph
		}
	}

	if tx.replaced {
		s.codec.Reseed(s.forest)
	} else {
		for _, root := range s.forest {
			s.codec.Observe(root.ID)
		}
	}

	s.diags = graph.Lint(s.forest)
	for _, c := range tx.report.Cleared {
		s.logger.Warn("cleared dangling constraint reference",
			"op", tx.op, "holder", c.HolderID, "package", c.Package, "target", c.StaleNodeID)
	}
	s.logger.Debug("mutation committed",
		"op", tx.op, "node", tx.nodeID, "revision", s.revision+1,
		"renumbered", len(tx.mapping), "nodes", types.CountNodes(s.forest))
}

// rootsShifted reports whether any root ID changed, which invalidates the
// registry's root IDs wholesale.
func (tx *txn) rootsShifted() bool {
	if tx.replaced {
		return true
	}
	for old := range tx.mapping {
		if ids.Depth(old) == 1 {
			return true
		}
	}
	return false
}

// shadowedDelete reports whether a deleted root's name is also carried by a
// surviving root, which must then take the name over.
func (s *Session) shadowedDelete(tx *txn) bool {
	for _, d := range tx.deleted {
		for _, root := range tx.forest {
			if root.Name == d.name {
				return true
			}
		}
	}
	return false
}
