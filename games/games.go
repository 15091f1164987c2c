// Package games builds classic perfect-information games as spne trees.
package games

import (
	"fmt"

	"github.com/timpalpant/go-spne"
)

const (
	player0 = 0
	player1 = 1
)

// builder wraps a tree under construction. Adding nodes only fails for
// invalid parents, which would be a bug in this package.
type builder struct {
	t *spne.Tree
}

func newBuilder(names ...string) *builder {
	t := spne.NewTree()
	t.SetPlayerNames(names)
	return &builder{t: t}
}

func (b *builder) decision(parent int, action string, player int) int {
	node, err := b.t.AddNode(spne.DecisionNode, parent, action)
	if err != nil {
		panic(err)
	}

	b.t.UpdateNode(node.ID, spne.NodeUpdate{Player: &player})
	return node.ID
}

func (b *builder) terminal(parent int, action string, payoffs ...float64) int {
	node, err := b.t.AddNode(spne.TerminalNode, parent, action)
	if err != nil {
		panic(err)
	}

	b.t.UpdateNode(node.ID, spne.NodeUpdate{Payoffs: payoffs})
	return node.ID
}

// Centipede returns a two-player centipede game with the given number of
// rounds. In round k the mover may Take, earning k+2 while the other
// player gets k, or Pass to the opponent. If every round passes, both
// players get rounds.
func Centipede(rounds int) *spne.Tree {
	b := newBuilder("Odd", "Even")
	parent := spne.NoNode
	action := ""
	for k := 0; k < rounds; k++ {
		mover := k % 2
		parent = b.decision(parent, action, mover)

		payoffs := make([]float64, 2)
		payoffs[mover] = float64(k + 2)
		payoffs[1-mover] = float64(k)
		b.terminal(parent, "Take", payoffs...)
		action = "Pass"
	}

	if parent == spne.NoNode {
		b.terminal(parent, "", 0, 0)
	} else {
		b.terminal(parent, action, float64(rounds), float64(rounds))
	}

	return b.t
}

// EntryDeterrence returns the market entry game: an entrant decides
// whether to enter, and if it does the incumbent decides whether to fight.
func EntryDeterrence() *spne.Tree {
	b := newBuilder("Entrant", "Incumbent")
	root := b.decision(spne.NoNode, "", player0)
	b.terminal(root, "Stay Out", 0, 2)
	enter := b.decision(root, "Enter", player1)
	b.terminal(enter, "Fight", -1, -1)
	b.terminal(enter, "Accommodate", 1, 1)
	return b.t
}

// Ultimatum returns the discrete ultimatum game over a pie of the given
// size: the proposer offers k units to the responder, who accepts the
// split or rejects it, leaving both with nothing.
func Ultimatum(pie int) *spne.Tree {
	b := newBuilder("Proposer", "Responder")
	root := b.decision(spne.NoNode, "", player0)
	for k := 0; k <= pie; k++ {
		offer := b.decision(root, fmt.Sprintf("Offer %d", k), player1)
		b.terminal(offer, "Accept", float64(pie-k), float64(k))
		b.terminal(offer, "Reject", 0, 0)
	}

	return b.t
}
