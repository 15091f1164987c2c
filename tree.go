package spne

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	defaultPlayerCount  = 2
	defaultActionPrefix = "Action "
)

// Edge connects a node to one of its children.
type Edge struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Action string `json:"action"`
}

// Tree is a finite, perfect-information extensive-form game tree.
//
// Tree is not safe for concurrent use. Callers that share a Tree between
// goroutines must serialize mutations against reads and solves.
type Tree struct {
	nodes       map[int]*Node
	root        int
	nextID      int
	playerCount int
	playerNames []string
}

// NewTree returns an empty two-player tree.
func NewTree() *Tree {
	return &Tree{
		nodes:       make(map[int]*Node),
		nextID:      1,
		playerCount: defaultPlayerCount,
	}
}

// Root returns the id of the root node, or NoNode if the tree is empty.
func (t *Tree) Root() int {
	return t.root
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) PlayerCount() int {
	return t.playerCount
}

// PlayerNames returns the configured player names. It may be shorter
// than PlayerCount.
func (t *Tree) PlayerNames() []string {
	return append([]string(nil), t.playerNames...)
}

// PlayerName returns the configured name of player i, falling back to
// "Player <i+1>".
func (t *Tree) PlayerName(i int) string {
	if i >= 0 && i < len(t.playerNames) && t.playerNames[i] != "" {
		return t.playerNames[i]
	}

	return fmt.Sprintf("Player %d", i+1)
}

// AddNode creates a new node of the given kind as the last child of parent,
// or as the root if parent is NoNode and the tree is empty. An empty action
// label falls back to the positional default.
//
// The returned node is owned by the tree. Callers may set its display
// fields directly; everything else must go through UpdateNode.
func (t *Tree) AddNode(kind NodeKind, parent int, action string) (*Node, error) {
	var p *Node
	if parent == NoNode {
		if t.root != NoNode {
			return nil, errors.Wrapf(ErrInvalidParent, "tree already has root %d", t.root)
		}
	} else {
		p = t.nodes[parent]
		if p == nil {
			return nil, errors.Wrapf(ErrInvalidParent, "node %d does not exist", parent)
		} else if p.Kind == TerminalNode {
			return nil, errors.Wrapf(ErrInvalidParent, "node %d is terminal", parent)
		}
	}

	node := &Node{
		ID:     t.nextID,
		Kind:   kind,
		Parent: parent,
		Action: action,
	}
	if kind == TerminalNode {
		node.Payoffs = make([]float64, t.playerCount)
	}

	t.nextID++
	t.nodes[node.ID] = node
	if p != nil {
		p.Children = append(p.Children, node.ID)
	} else {
		t.root = node.ID
	}

	glog.V(2).Infof("Added %v", node)
	return node, nil
}

// GetNode returns the node with the given id, or nil if there is none.
func (t *Tree) GetNode(id int) *Node {
	return t.nodes[id]
}

// Nodes returns all nodes ordered by id.
func (t *Tree) Nodes() []*Node {
	result := make([]*Node, 0, len(t.nodes))
	for _, node := range t.nodes {
		result = append(result, node)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// UpdateNode merges the non-nil fields of u into the node with the given id.
// It reports whether the node exists. No validation is performed: the solver
// rejects payoff vectors or acting players that do not fit the player count.
func (t *Tree) UpdateNode(id int, u NodeUpdate) bool {
	node := t.nodes[id]
	if node == nil {
		return false
	}

	if u.Action != nil {
		node.Action = *u.Action
	}
	if u.Player != nil {
		node.Player = *u.Player
	}
	if u.Strategy != nil {
		node.Strategy = *u.Strategy
	}
	if u.Payoffs != nil {
		node.Payoffs = append([]float64(nil), u.Payoffs...)
	}
	if u.X != nil {
		node.X = *u.X
	}
	if u.Y != nil {
		node.Y = *u.Y
	}
	if u.Radius != nil {
		node.Radius = *u.Radius
	}

	return true
}

// DeleteNode removes the node and all of its descendants. Deleting the
// root empties the tree. It reports the number of nodes removed.
func (t *Tree) DeleteNode(id int) int {
	node := t.nodes[id]
	if node == nil {
		return 0
	}

	removed := postOrder(t, id)
	for _, d := range removed {
		delete(t.nodes, d)
	}

	if parent := t.nodes[node.Parent]; parent != nil {
		parent.Children = removeID(parent.Children, id)
	}

	if t.root == id {
		t.root = NoNode
	}

	glog.V(2).Infof("Deleted node %d and %d descendants", id, len(removed)-1)
	return len(removed)
}

// SetPlayerCount changes the number of players, zero-padding or truncating
// the payoff vector of every terminal node to match.
func (t *Tree) SetPlayerCount(n int) error {
	if n < 1 {
		return errors.Wrapf(ErrInvalidPlayerCount, "got %d", n)
	}

	t.playerCount = n
	for _, node := range t.nodes {
		if node.Kind == TerminalNode {
			node.Payoffs = resize(node.Payoffs, n)
		}
	}

	if len(t.playerNames) > n {
		t.playerNames = t.playerNames[:n]
	}

	return nil
}

// SetPlayerNames sets player names, ignoring any beyond PlayerCount.
func (t *Tree) SetPlayerNames(names []string) {
	if len(names) > t.playerCount {
		names = names[:t.playerCount]
	}

	t.playerNames = append([]string(nil), names...)
}

// ActionLabel returns the label of the action leading to the given node:
// its own label if set, otherwise "Action <i+1>" where i is its index
// among its siblings. The root has no incoming action.
func (t *Tree) ActionLabel(id int) string {
	node := t.nodes[id]
	if node == nil || node.IsRoot() {
		return ""
	} else if node.Action != "" {
		return node.Action
	}

	parent := t.nodes[node.Parent]
	if parent == nil {
		return ""
	}

	return defaultActionLabel(indexOf(parent.Children, id))
}

// Edges returns one edge per parent-child pair, ordered by parent id
// and then by action index.
func (t *Tree) Edges() []Edge {
	var result []Edge
	for _, node := range t.Nodes() {
		for _, child := range node.Children {
			result = append(result, Edge{
				From:   node.ID,
				To:     child,
				Action: t.ActionLabel(child),
			})
		}
	}

	return result
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:       make(map[int]*Node, len(t.nodes)),
		root:        t.root,
		nextID:      t.nextID,
		playerCount: t.playerCount,
		playerNames: append([]string(nil), t.playerNames...),
	}

	for id, node := range t.nodes {
		c.nodes[id] = node.clone()
	}

	return c
}

func defaultActionLabel(i int) string {
	return defaultActionPrefix + strconv.Itoa(i+1)
}

func resize(v []float64, n int) []float64 {
	if len(v) >= n {
		return v[:n:n]
	}

	return append(v, make([]float64, n-len(v))...)
}

func indexOf(ids []int, id int) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}

	return -1
}

func removeID(ids []int, id int) []int {
	result := ids[:0]
	for _, x := range ids {
		if x != id {
			result = append(result, x)
		}
	}

	return result
}
