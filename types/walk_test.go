package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWalkForest(t *testing.T) {
	var visited []string
	WalkForest(sample(), func(n, _ *Node) bool {
		visited = append(visited, n.ID)
		return n.ID != "0201"
	})
	want := []string{"01", "0101", "0102", "02", "0201", "0202"}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}

func TestFind(t *testing.T) {
	forest := sample()

	node, parent := FindWithParent(forest, "020101")
	if node == nil || node.Name != "Logo" || parent == nil || parent.ID != "0201" {
		t.Errorf("FindWithParent(020101) = %v, %v", node, parent)
	}
	if node, parent := FindWithParent(forest, "02"); node == nil || parent != nil {
		t.Error("roots have no parent")
	}
	if FindNode(forest, "0909") != nil || FindNode(forest, "") != nil {
		t.Error("unknown ids are not found")
	}
	if root := FindRootFor(forest, "020101"); root == nil || root.ID != "02" {
		t.Errorf("FindRootFor(020101) = %v", root)
	}
}

func TestContains(t *testing.T) {
	forest := sample()
	if !Contains(forest[1], "020101") || !Contains(forest[1], "02") {
		t.Error("a root contains itself and its descendants")
	}
	if Contains(forest[1], "0101") {
		t.Error("references are not descended into")
	}
}

func TestDescendantIDs(t *testing.T) {
	forest := sample()

	got, ok := DescendantIDs(forest, "02")
	if !ok {
		t.Fatal("02 exists")
	}
	if diff := cmp.Diff([]string{"0201", "020101", "0202"}, got); diff != "" {
		t.Errorf("descendants mismatch (-want +got):\n%s", diff)
	}
	if got, ok := DescendantIDs(forest, "020101"); !ok || len(got) != 0 || got == nil {
		t.Errorf("a leaf has an empty, non-nil list: %v", got)
	}
	if _, ok := DescendantIDs(forest, "0909"); ok {
		t.Error("unknown node reported as found")
	}
	if n := CountNodes(forest); n != 7 {
		t.Errorf("CountNodes = %d, want 7", n)
	}
}

func TestRemoveNode(t *testing.T) {
	forest := sample()

	forest, removed := RemoveNode(forest, "0201")
	if removed == nil || removed.Name != "Header" {
		t.Fatalf("removed %v", removed)
	}
	if len(forest[1].Children()) != 1 {
		t.Error("child not detached")
	}

	forest, removed = RemoveNode(forest, "01")
	if removed == nil || len(forest) != 1 || forest[0].ID != "02" {
		t.Errorf("root not detached: %v", forest)
	}

	same, removed := RemoveNode(forest, "0909")
	if removed != nil || len(same) != 1 {
		t.Error("removing an unknown node changes nothing")
	}
}
