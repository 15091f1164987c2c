package spne

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func mustAdd(t *testing.T, tree *Tree, kind NodeKind, parent int, action string) *Node {
	t.Helper()
	node, err := tree.AddNode(kind, parent, action)
	if err != nil {
		t.Fatal(err)
	}

	return node
}

func TestAddNode_AssignsIncreasingIDs(t *testing.T) {
	tree := NewTree()
	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	a := mustAdd(t, tree, TerminalNode, root.ID, "")
	b := mustAdd(t, tree, TerminalNode, root.ID, "Defect")

	if tree.Root() != root.ID {
		t.Errorf("expected root %d, got %d", root.ID, tree.Root())
	}
	if root.ID != 1 || a.ID != 2 || b.ID != 3 {
		t.Errorf("expected ids 1, 2, 3, got %d, %d, %d", root.ID, a.ID, b.ID)
	}
	if !reflect.DeepEqual(root.Children, []int{a.ID, b.ID}) {
		t.Errorf("unexpected children: %v", root.Children)
	}
	if a.Parent != root.ID {
		t.Errorf("expected parent %d, got %d", root.ID, a.Parent)
	}
	if len(a.Payoffs) != tree.PlayerCount() {
		t.Errorf("expected %d payoffs, got %v", tree.PlayerCount(), a.Payoffs)
	}

	tree.DeleteNode(b.ID)
	c := mustAdd(t, tree, TerminalNode, root.ID, "")
	if c.ID != 4 {
		t.Errorf("expected ids not to be reused, got %d", c.ID)
	}
}

func TestAddNode_InvalidParent(t *testing.T) {
	tree := NewTree()
	if _, err := tree.AddNode(TerminalNode, 42, ""); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent for missing parent, got %v", err)
	}
	if tree.Len() != 0 || tree.Root() != NoNode {
		t.Errorf("failed add modified tree: len=%d root=%d", tree.Len(), tree.Root())
	}

	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	if _, err := tree.AddNode(DecisionNode, NoNode, ""); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent for second root, got %v", err)
	}

	leaf := mustAdd(t, tree, TerminalNode, root.ID, "")
	if _, err := tree.AddNode(TerminalNode, leaf.ID, ""); !errors.Is(err, ErrInvalidParent) {
		t.Errorf("expected ErrInvalidParent for terminal parent, got %v", err)
	}
	if tree.Len() != 2 {
		t.Errorf("expected 2 nodes, got %d", tree.Len())
	}
}

func TestActionLabel(t *testing.T) {
	tree := NewTree()
	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	a := mustAdd(t, tree, TerminalNode, root.ID, "")
	b := mustAdd(t, tree, TerminalNode, root.ID, "Fight")
	c := mustAdd(t, tree, TerminalNode, root.ID, "")

	testCases := []struct {
		id   int
		want string
	}{
		{root.ID, ""},
		{a.ID, "Action 1"},
		{b.ID, "Fight"},
		{c.ID, "Action 3"},
	}

	for _, tc := range testCases {
		if got := tree.ActionLabel(tc.id); got != tc.want {
			t.Errorf("node %d: expected label %q, got %q", tc.id, tc.want, got)
		}
	}

	tree.DeleteNode(a.ID)
	if got := tree.ActionLabel(c.ID); got != "Action 2" {
		t.Errorf("expected positional label to follow index, got %q", got)
	}

	edges := tree.Edges()
	want := []Edge{{root.ID, b.ID, "Fight"}, {root.ID, c.ID, "Action 2"}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("expected edges %v, got %v", want, edges)
	}
}

func TestUpdateNode(t *testing.T) {
	tree := NewTree()
	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	leaf := mustAdd(t, tree, TerminalNode, root.ID, "")

	player := 1
	strategy := "tit for tat"
	if !tree.UpdateNode(root.ID, NodeUpdate{Player: &player, Strategy: &strategy}) {
		t.Fatal("expected root to exist")
	}
	if root.Player != 1 || root.Strategy != strategy {
		t.Errorf("update not applied: %+v", root)
	}

	payoffs := []float64{3, -1}
	label := "Cooperate"
	x := 12.5
	tree.UpdateNode(leaf.ID, NodeUpdate{Payoffs: payoffs, Action: &label, X: &x})
	payoffs[0] = 100
	if !reflect.DeepEqual(leaf.Payoffs, []float64{3, -1}) {
		t.Errorf("expected payoffs to be copied, got %v", leaf.Payoffs)
	}
	if tree.ActionLabel(leaf.ID) != label || leaf.X != x {
		t.Errorf("update not applied: %+v", leaf)
	}
	if leaf.Player != 0 || leaf.Strategy != "" {
		t.Errorf("unset fields were modified: %+v", leaf)
	}

	if tree.UpdateNode(99, NodeUpdate{Player: &player}) {
		t.Error("expected update of missing node to report false")
	}
}

func TestDeleteNode_Cascades(t *testing.T) {
	tree := NewTree()
	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	left := mustAdd(t, tree, DecisionNode, root.ID, "")
	right := mustAdd(t, tree, TerminalNode, root.ID, "")
	ll := mustAdd(t, tree, DecisionNode, left.ID, "")
	mustAdd(t, tree, TerminalNode, ll.ID, "")
	mustAdd(t, tree, TerminalNode, ll.ID, "")
	mustAdd(t, tree, TerminalNode, left.ID, "")

	if n := tree.DeleteNode(left.ID); n != 5 {
		t.Errorf("expected 5 nodes removed, got %d", n)
	}

	if tree.Len() != 2 {
		t.Errorf("expected 2 remaining nodes, got %d", tree.Len())
	}
	if !reflect.DeepEqual(root.Children, []int{right.ID}) {
		t.Errorf("expected root children [%d], got %v", right.ID, root.Children)
	}

	for _, node := range tree.Nodes() {
		if node.Parent != NoNode && tree.GetNode(node.Parent) == nil {
			t.Errorf("node %d refers to deleted parent %d", node.ID, node.Parent)
		}
	}
	for _, e := range tree.Edges() {
		if tree.GetNode(e.From) == nil || tree.GetNode(e.To) == nil {
			t.Errorf("edge %v refers to a deleted node", e)
		}
	}

	if n := tree.DeleteNode(left.ID); n != 0 {
		t.Errorf("expected deleting a missing node to be a no-op, removed %d", n)
	}
}

func TestDeleteNode_Root(t *testing.T) {
	tree := NewTree()
	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	mustAdd(t, tree, TerminalNode, root.ID, "")

	tree.DeleteNode(root.ID)
	if tree.Root() != NoNode || tree.Len() != 0 {
		t.Errorf("expected empty tree, got root=%d len=%d", tree.Root(), tree.Len())
	}

	newRoot := mustAdd(t, tree, TerminalNode, NoNode, "")
	if tree.Root() != newRoot.ID {
		t.Errorf("expected new root %d, got %d", newRoot.ID, tree.Root())
	}
}

func TestDeleteNode_DeepChain(t *testing.T) {
	tree := NewTree()
	parent := mustAdd(t, tree, DecisionNode, NoNode, "")
	root := parent.ID
	for i := 0; i < 100000; i++ {
		parent = mustAdd(t, tree, DecisionNode, parent.ID, "")
	}

	if n := tree.DeleteNode(root); n != 100001 {
		t.Errorf("expected 100001 nodes removed, got %d", n)
	}
}

func TestSetPlayerCount(t *testing.T) {
	tree := NewTree()
	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	leaf := mustAdd(t, tree, TerminalNode, root.ID, "")
	tree.UpdateNode(leaf.ID, NodeUpdate{Payoffs: []float64{1, 2}})
	tree.SetPlayerNames([]string{"Alice", "Bob"})

	if err := tree.SetPlayerCount(4); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(leaf.Payoffs, []float64{1, 2, 0, 0}) {
		t.Errorf("expected zero padding, got %v", leaf.Payoffs)
	}
	if root.Payoffs != nil {
		t.Errorf("decision node payoffs modified: %v", root.Payoffs)
	}

	if err := tree.SetPlayerCount(1); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(leaf.Payoffs, []float64{1}) {
		t.Errorf("expected truncation, got %v", leaf.Payoffs)
	}
	if names := tree.PlayerNames(); !reflect.DeepEqual(names, []string{"Alice"}) {
		t.Errorf("expected names truncated, got %v", names)
	}

	if err := tree.SetPlayerCount(0); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Errorf("expected ErrInvalidPlayerCount, got %v", err)
	}
	if tree.PlayerCount() != 1 {
		t.Errorf("failed SetPlayerCount modified count: %d", tree.PlayerCount())
	}
}

func TestSetPlayerNames(t *testing.T) {
	tree := NewTree()
	tree.SetPlayerNames([]string{"Alice", "", "Carol"})

	if names := tree.PlayerNames(); !reflect.DeepEqual(names, []string{"Alice", ""}) {
		t.Errorf("expected names truncated to player count, got %v", names)
	}
	if name := tree.PlayerName(0); name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}
	if name := tree.PlayerName(1); name != "Player 2" {
		t.Errorf("expected generated name for blank entry, got %q", name)
	}
	if name := tree.PlayerName(5); name != "Player 6" {
		t.Errorf("expected generated name, got %q", name)
	}
}

func TestClone(t *testing.T) {
	tree := NewTree()
	root := mustAdd(t, tree, DecisionNode, NoNode, "")
	leaf := mustAdd(t, tree, TerminalNode, root.ID, "")

	c := tree.Clone()
	tree.UpdateNode(leaf.ID, NodeUpdate{Payoffs: []float64{7, 7}})
	tree.DeleteNode(root.ID)

	if c.Len() != 2 || c.Root() != root.ID {
		t.Errorf("clone changed with original: len=%d root=%d", c.Len(), c.Root())
	}
	if p := c.GetNode(leaf.ID).Payoffs; !reflect.DeepEqual(p, []float64{0, 0}) {
		t.Errorf("clone payoffs changed with original: %v", p)
	}
}
