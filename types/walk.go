package types

// Walk visits n and its owned descendants depth-first, pre-order. parent is
// nil for n itself. Returning false from fn skips the node's children.
// Reference nodes are visited but never descended into.
func Walk(n *Node, fn func(node, parent *Node) bool) {
	walk(n, nil, fn)
}

func walk(n, parent *Node, fn func(node, parent *Node) bool) {
	if !fn(n, parent) {
		return
	}
	for _, child := range n.Children() {
		walk(child, n, fn)
	}
}

// WalkForest runs Walk over every root in order.
func WalkForest(forest []*Node, fn func(node, parent *Node) bool) {
	for _, root := range forest {
		walk(root, nil, fn)
	}
}

// FindNode returns the first node with the given id in depth-first order.
func FindNode(forest []*Node, id string) *Node {
	node, _ := FindWithParent(forest, id)
	return node
}

// FindWithParent returns the node with the given id and its parent. The
// parent is nil for roots; both are nil when id is absent.
func FindWithParent(forest []*Node, id string) (node, parent *Node) {
	if id == "" {
		return nil, nil
	}
	WalkForest(forest, func(n, p *Node) bool {
		if node != nil {
			return false
		}
		if n.ID == id {
			node, parent = n, p
			return false
		}
		return true
	})
	return node, parent
}

// FindRootFor returns the root whose subtree contains id.
func FindRootFor(forest []*Node, id string) *Node {
	for _, root := range forest {
		if Contains(root, id) {
			return root
		}
	}
	return nil
}

// Contains reports whether id is n or one of its owned descendants.
func Contains(n *Node, id string) bool {
	found := false
	Walk(n, func(node, _ *Node) bool {
		if found {
			return false
		}
		if node.ID == id {
			found = true
			return false
		}
		return true
	})
	return found
}

// DescendantIDs lists the IDs below the node with the given id, in
// depth-first order, excluding the node itself. ok is false when the node
// does not exist.
func DescendantIDs(forest []*Node, id string) (ids []string, ok bool) {
	node := FindNode(forest, id)
	if node == nil {
		return nil, false
	}
	ids = []string{}
	Walk(node, func(n, _ *Node) bool {
		if n != node {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids, true
}

// CountNodes returns the number of owned nodes in forest.
func CountNodes(forest []*Node) int {
	count := 0
	WalkForest(forest, func(*Node, *Node) bool {
		count++
		return true
	})
	return count
}

// RemoveNode detaches the node with the given id from forest and returns
// the new root list together with the detached subtree. The forest is
// modified in place except for the returned root slice.
func RemoveNode(forest []*Node, id string) ([]*Node, *Node) {
	node, parent := FindWithParent(forest, id)
	if node == nil {
		return forest, nil
	}
	if parent == nil {
		return removeFrom(forest, node), node
	}
	// Parent found by walking owned children, so it is standard.
	_ = parent.SetChildren(removeFrom(parent.Children(), node))
	return forest, node
}

func removeFrom(list []*Node, target *Node) []*Node {
	out := make([]*Node, 0, len(list))
	for _, n := range list {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}
