package spne

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Snapshot is the serialized form of a Tree.
type Snapshot struct {
	Root        *int           `json:"root"`
	Nodes       []SnapshotNode `json:"nodes"`
	Edges       []Edge         `json:"edges"`
	PlayerCount int            `json:"playerCount"`
	PlayerNames []string       `json:"playerNames,omitempty"`
}

// SnapshotNode is the serialized form of a Node.
type SnapshotNode struct {
	ID       int       `json:"id"`
	Type     NodeKind  `json:"type"`
	Parent   *int      `json:"parent"`
	Children []int     `json:"children"`
	Action   string    `json:"action,omitempty"`
	Player   int       `json:"player"`
	Strategy string    `json:"strategy,omitempty"`
	Payoffs  []float64 `json:"payoffs,omitempty"`
	X        float64   `json:"x,omitempty"`
	Y        float64   `json:"y,omitempty"`
	Radius   float64   `json:"radius,omitempty"`
}

// Snapshot returns the full structural state of the tree.
func (t *Tree) Snapshot() *Snapshot {
	snap := &Snapshot{
		Nodes:       make([]SnapshotNode, 0, len(t.nodes)),
		Edges:       t.Edges(),
		PlayerCount: t.playerCount,
		PlayerNames: t.PlayerNames(),
	}

	if t.root != NoNode {
		root := t.root
		snap.Root = &root
	}

	for _, node := range t.Nodes() {
		sn := SnapshotNode{
			ID:       node.ID,
			Type:     node.Kind,
			Children: append([]int{}, node.Children...),
			Action:   node.Action,
			Player:   node.Player,
			Strategy: node.Strategy,
			Payoffs:  copyPayoffs(node.Payoffs),
			X:        node.X,
			Y:        node.Y,
			Radius:   node.Radius,
		}
		if !node.IsRoot() {
			parent := node.Parent
			sn.Parent = &parent
		}

		snap.Nodes = append(snap.Nodes, sn)
	}

	return snap
}

// Restore rebuilds a Tree from a snapshot, validating that it describes
// a single rooted tree. The next node id is one past the largest id present.
func Restore(snap *Snapshot) (*Tree, error) {
	if snap == nil {
		return nil, errors.Wrap(ErrDeserialization, "nil snapshot")
	} else if snap.PlayerCount < 1 {
		return nil, errors.Wrapf(ErrDeserialization, "player count %d", snap.PlayerCount)
	}

	t := NewTree()
	t.playerCount = snap.PlayerCount
	t.SetPlayerNames(snap.PlayerNames)

	if len(snap.Nodes) == 0 {
		if snap.Root != nil {
			return nil, errors.Wrapf(ErrDeserialization, "root %d is not among the nodes", *snap.Root)
		}

		return t, nil
	} else if snap.Root == nil {
		return nil, errors.Wrapf(ErrDeserialization, "%d nodes but no root", len(snap.Nodes))
	}

	maxID := 0
	for _, sn := range snap.Nodes {
		if sn.ID <= NoNode {
			return nil, errors.Wrapf(ErrDeserialization, "invalid node id %d", sn.ID)
		} else if _, ok := t.nodes[sn.ID]; ok {
			return nil, errors.Wrapf(ErrDeserialization, "duplicate node id %d", sn.ID)
		}

		node := &Node{
			ID:       sn.ID,
			Kind:     sn.Type,
			Children: append([]int(nil), sn.Children...),
			Action:   sn.Action,
			Player:   sn.Player,
			Strategy: sn.Strategy,
			Payoffs:  copyPayoffs(sn.Payoffs),
			X:        sn.X,
			Y:        sn.Y,
			Radius:   sn.Radius,
		}
		if sn.Parent != nil {
			node.Parent = *sn.Parent
		}

		t.nodes[node.ID] = node
		if node.ID > maxID {
			maxID = node.ID
		}
	}

	t.root = *snap.Root
	t.nextID = maxID + 1
	if err := validateStructure(t); err != nil {
		return nil, err
	}

	if err := applyEdgeLabels(t, snap.Edges); err != nil {
		return nil, err
	}

	return t, nil
}

func validateStructure(t *Tree) error {
	root := t.nodes[t.root]
	if root == nil {
		return errors.Wrapf(ErrDeserialization, "root %d is not among the nodes", t.root)
	} else if !root.IsRoot() {
		return errors.Wrapf(ErrDeserialization, "root %d has parent %d", root.ID, root.Parent)
	}

	for _, node := range t.nodes {
		if node.ID != t.root {
			if node.IsRoot() {
				return errors.Wrapf(ErrDeserialization, "node %d has no parent", node.ID)
			}

			parent := t.nodes[node.Parent]
			if parent == nil {
				return errors.Wrapf(ErrDeserialization,
					"node %d refers to missing parent %d", node.ID, node.Parent)
			} else if indexOf(parent.Children, node.ID) < 0 {
				return errors.Wrapf(ErrDeserialization,
					"node %d is not listed as a child of its parent %d", node.ID, node.Parent)
			}
		}

		seen := make(map[int]struct{}, len(node.Children))
		for _, id := range node.Children {
			child := t.nodes[id]
			if child == nil {
				return errors.Wrapf(ErrDeserialization,
					"node %d refers to missing child %d", node.ID, id)
			} else if child.Parent != node.ID {
				return errors.Wrapf(ErrDeserialization,
					"node %d lists child %d whose parent is %d", node.ID, id, child.Parent)
			} else if _, ok := seen[id]; ok {
				return errors.Wrapf(ErrDeserialization, "node %d lists child %d twice", node.ID, id)
			}
			seen[id] = struct{}{}
		}
	}

	if n := len(postOrder(t, t.root)); n != len(t.nodes) {
		return errors.Wrapf(ErrDeserialization,
			"%d of %d nodes are not reachable from root %d", len(t.nodes)-n, len(t.nodes), t.root)
	}

	return nil
}

// applyEdgeLabels folds edge labels into the child nodes. Positional
// labels ("Action 2") are left implicit since they go stale once a
// sibling is deleted.
func applyEdgeLabels(t *Tree, edges []Edge) error {
	for _, e := range edges {
		child := t.nodes[e.To]
		if child == nil || t.nodes[e.From] == nil {
			return errors.Wrapf(ErrDeserialization, "edge %d -> %d refers to a missing node", e.From, e.To)
		} else if child.Parent != e.From {
			return errors.Wrapf(ErrDeserialization,
				"edge %d -> %d disagrees with parent %d", e.From, e.To, child.Parent)
		}

		if child.Action == "" && !isPositionalLabel(e.Action) {
			child.Action = e.Action
		}
	}

	return nil
}

func isPositionalLabel(label string) bool {
	if label == "" {
		return true
	}

	n := strings.TrimPrefix(label, defaultActionPrefix)
	if n == label {
		return false
	}

	_, err := strconv.Atoi(n)
	return err == nil
}

// Digest returns a hex-encoded SHA-256 hash of the snapshot's JSON form.
// Snapshots of the same tree have the same digest.
func (snap *Snapshot) Digest() (string, error) {
	buf, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// LoadTree reads a JSON snapshot from r and restores it.
func LoadTree(r io.Reader) (*Tree, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, errors.Wrapf(ErrDeserialization, "decoding snapshot: %v", err)
	}

	return Restore(&snap)
}

// MarshalTo writes the tree as a JSON snapshot to w.
func (t *Tree) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(t.Snapshot())
}

// storedTree is the binary form of a Tree. It carries the id counter so
// ids of deleted nodes are not handed out again after a round trip.
type storedTree struct {
	Snapshot *Snapshot
	NextID   int
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Tree) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(storedTree{Snapshot: t.Snapshot(), NextID: t.nextID}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (t *Tree) UnmarshalBinary(buf []byte) error {
	r := bytes.NewReader(buf)
	dec := gob.NewDecoder(r)

	var stored storedTree
	if err := dec.Decode(&stored); err != nil {
		return errors.Wrapf(ErrDeserialization, "decoding tree: %v", err)
	}

	restored, err := Restore(stored.Snapshot)
	if err != nil {
		return err
	}

	if stored.NextID > restored.nextID {
		restored.nextID = stored.NextID
	}

	*t = *restored
	return nil
}
