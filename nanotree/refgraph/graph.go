// Package refgraph maintains the registry of user-defined types, one per
// named root, and answers the ancestor and cycle questions a reference node
// raises when it picks a type to alias.
package refgraph

import (
	"sort"

	"github.com/arthur-debert/nanotree/types"
)

// Graph maps type names to root nodes. Only roots with a non-empty name
// are registered, and the name/root-ID mapping is kept a bijection: when
// two roots share a name the first one in document order wins.
//
// Root pointers refer to the forest passed to the last Build, Rebuild,
// Bind or HandleRootRename call.
type Graph struct {
	rootByName map[string]string      // type name -> root ID
	nameByRoot map[string]string      // root ID -> type name
	nodeByName map[string]*types.Node // type name -> root node
}

// Build returns a graph over forest's roots.
func Build(forest []*types.Node) *Graph {
	g := &Graph{}
	g.Rebuild(forest)
	return g
}

// Rebuild discards all entries and registers forest's roots again.
func (g *Graph) Rebuild(forest []*types.Node) {
	g.rootByName = make(map[string]string)
	g.nameByRoot = make(map[string]string)
	g.nodeByName = make(map[string]*types.Node)
	for _, root := range forest {
		g.register(root)
	}
}

func (g *Graph) register(root *types.Node) {
	if root.Name == "" {
		return
	}
	if _, taken := g.rootByName[root.Name]; taken {
		return
	}
	if _, taken := g.nameByRoot[root.ID]; taken {
		return
	}
	g.rootByName[root.Name] = root.ID
	g.nameByRoot[root.ID] = root.Name
	g.nodeByName[root.Name] = root
}

// Bind re-points registered entries at the roots of forest, matching by
// root ID. Use it after a commit that kept every root ID and name.
func (g *Graph) Bind(forest []*types.Node) {
	for _, root := range forest {
		if name, ok := g.nameByRoot[root.ID]; ok && name == root.Name {
			g.nodeByName[name] = root
		}
	}
}

// HandleRootRename patches the registry after the root rootID was renamed
// from oldName to newName. The result is the same as a Rebuild.
func (g *Graph) HandleRootRename(rootID, oldName, newName string, forest []*types.Node) {
	if oldName == newName {
		return
	}
	if current, ok := g.rootByName[oldName]; ok && current == rootID {
		delete(g.rootByName, oldName)
		delete(g.nodeByName, oldName)
		delete(g.nameByRoot, rootID)
		// A root shadowed by the old owner of oldName takes the name over.
		for _, root := range forest {
			if root.ID != rootID && root.Name == oldName {
				g.register(root)
				break
			}
		}
	}
	renamed := -1
	for i, root := range forest {
		if root.ID == rootID {
			renamed = i
			break
		}
	}
	if renamed < 0 {
		return
	}
	// Document order decides who owns a shared name.
	if holder, taken := g.rootByName[newName]; taken {
		for _, root := range forest[renamed+1:] {
			if root.ID == holder {
				g.HandleRootDelete(holder)
				break
			}
		}
	}
	g.register(forest[renamed])
}

// HandleRootAdd registers a root appended at the end of the forest. A name
// already held by an earlier root stays with that root.
func (g *Graph) HandleRootAdd(root *types.Node) {
	g.register(root)
}

// HandleRootDelete retracts the entry for rootID, if any.
func (g *Graph) HandleRootDelete(rootID string) {
	name, ok := g.nameByRoot[rootID]
	if !ok {
		return
	}
	delete(g.nameByRoot, rootID)
	delete(g.rootByName, name)
	delete(g.nodeByName, name)
}

// Resolve returns the root ID registered under typeName.
func (g *Graph) Resolve(typeName string) (string, bool) {
	id, ok := g.rootByName[typeName]
	return id, ok
}

// Root returns the root node registered under typeName.
func (g *Graph) Root(typeName string) (*types.Node, bool) {
	n, ok := g.nodeByName[typeName]
	return n, ok
}

// NameOf returns the type name registered for rootID.
func (g *Graph) NameOf(rootID string) (string, bool) {
	name, ok := g.nameByRoot[rootID]
	return name, ok
}

// Types lists the registered type names in sorted order.
func (g *Graph) Types() []string {
	names := make([]string, 0, len(g.rootByName))
	for name := range g.rootByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types.
func (g *Graph) Len() int {
	return len(g.rootByName)
}

// Equal reports whether g and other register the same names for the same
// root IDs.
func (g *Graph) Equal(other *Graph) bool {
	if len(g.rootByName) != len(other.rootByName) || len(g.nameByRoot) != len(other.nameByRoot) {
		return false
	}
	for name, id := range g.rootByName {
		if other.rootByName[name] != id {
			return false
		}
	}
	for id, name := range g.nameByRoot {
		if other.nameByRoot[id] != name {
			return false
		}
	}
	return true
}
