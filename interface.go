package spne

import (
	"fmt"

	"github.com/pkg/errors"
)

// NodeKind is the type of node in an extensive-form game tree.
type NodeKind int

const (
	DecisionNode NodeKind = iota
	TerminalNode
)

var nodeKindStr = [...]string{
	"player",
	"terminal",
}

// String implements fmt.Stringer.
func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindStr) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}

	return nodeKindStr[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(nodeKindStr) {
		return nil, errors.Errorf("unknown node kind: %d", int(k))
	}

	return []byte(nodeKindStr[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *NodeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "player", "decision":
		*k = DecisionNode
	case "terminal":
		*k = TerminalNode
	default:
		return errors.Errorf("unknown node kind: %q", string(text))
	}

	return nil
}

// NoNode is the id used for an absent parent or root.
// Node ids are always positive.
const NoNode = 0

// Node is a single decision or outcome in a game tree.
type Node struct {
	ID     int
	Kind   NodeKind
	Parent int
	// Children in action order: the ith child is reached by action i.
	Children []int
	// Label of the action leading to this node from its parent.
	// Empty means the positional default, see Tree.ActionLabel.
	Action string

	// Decision nodes only.
	Player   int
	Strategy string

	// Terminal nodes only. One entry per player.
	Payoffs []float64

	// Display metadata; ignored by the solver.
	X, Y, Radius float64
}

// IsRoot returns true if this node has no parent.
func (n *Node) IsRoot() bool {
	return n.Parent == NoNode
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n.Kind == TerminalNode {
		return fmt.Sprintf("terminal node %d %v", n.ID, n.Payoffs)
	}

	return fmt.Sprintf("decision node %d (player %d, %d actions)",
		n.ID, n.Player, len(n.Children))
}

func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]int(nil), n.Children...)
	c.Payoffs = append([]float64(nil), n.Payoffs...)
	return &c
}

// NodeUpdate holds the fields to merge into an existing node.
// Nil fields are left unchanged.
type NodeUpdate struct {
	Action   *string
	Player   *int
	Strategy *string
	Payoffs  []float64
	X, Y     *float64
	Radius   *float64
}

// SnapshotStore persists game trees by name.
type SnapshotStore interface {
	// Put stores the tree under the given key, replacing any previous tree.
	Put(key string, t *Tree) error
	// Get returns the tree stored under key, or ErrNotFound.
	Get(key string) (*Tree, error)
	Delete(key string) error
	// Keys returns all stored keys in sorted order.
	Keys() ([]string, error)
	Close() error
}
