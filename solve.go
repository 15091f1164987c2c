package spne

import (
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Params limit the size of trees the solver will accept.
// The zero value imposes no limits.
type Params struct {
	MaxNodes int // Maximum number of nodes reachable from the root.
	MaxDepth int // Maximum number of actions on any root-to-leaf path.
}

// Solution is the subgame-perfect equilibrium found by backward induction.
type Solution struct {
	// Map of decision node id -> label of the chosen action.
	Strategies map[int]string `json:"strategies"`
	// Map of decision node id -> labels of the other actions that tie
	// with the chosen one. Only present for nodes with ties.
	AlternativeStrategies map[int][]string `json:"alternativeStrategies,omitempty"`
	// Map of decision node id -> id of the chosen child.
	Choices map[int]int `json:"choices"`
	// Payoff of each player along the equilibrium path from the root.
	ExpectedPayoffs       []float64 `json:"expectedPayoffs"`
	Steps                 []Step    `json:"steps"`
	HasMultipleEquilibria bool      `json:"hasMultipleEquilibria"`
}

// Step is one entry in the human-readable trace of a solve.
type Step struct {
	Description string    `json:"description"`
	NodeID      int       `json:"nodeId"`
	Depth       int       `json:"depth"` // Number of actions from the root.
	Payoffs     []float64 `json:"payoffs"`

	// Decision nodes only.
	Player             *int     `json:"player,omitempty"`
	ChosenAction       string   `json:"chosenAction,omitempty"`
	AlternativeActions []string `json:"alternativeActions,omitempty"`
}

// Solver computes subgame-perfect equilibria of game trees.
// A Solver holds no state between calls and may be shared.
type Solver struct {
	params Params
}

func NewSolver(params Params) *Solver {
	return &Solver{params: params}
}

// Solve runs backward induction on t with no size limits.
func Solve(t *Tree) (*Solution, error) {
	return NewSolver(Params{}).Solve(t)
}

// SolveSnapshot restores a tree from snap and solves it.
func SolveSnapshot(snap *Snapshot, params Params) (*Solution, error) {
	t, err := Restore(snap)
	if err != nil {
		return nil, err
	}

	return NewSolver(params).Solve(t)
}

type solveFrame struct {
	id       int
	depth    int
	expanded bool
}

// induction is the accumulator for a single solve.
type induction struct {
	t        *Tree
	solution *Solution
	// Resulting payoff vector of each solved node not yet consumed by its parent.
	values  map[int][]float64
	visited map[int]struct{}
}

// Solve runs backward induction on t. It returns a nil Solution and no
// error if t is empty. The tree is only read, never modified.
//
// At each decision node the acting player picks the child maximizing
// their own payoff. Among tied children the lowest action index wins and
// the others are reported as alternatives.
func (s *Solver) Solve(t *Tree) (*Solution, error) {
	if t.root == NoNode {
		return nil, nil
	}

	ind := &induction{
		t: t,
		solution: &Solution{
			Strategies:            make(map[int]string),
			AlternativeStrategies: make(map[int][]string),
			Choices:               make(map[int]int),
		},
		values:  make(map[int][]float64),
		visited: make(map[int]struct{}),
	}

	stack := []solveFrame{{id: t.root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.expanded {
			if err := ind.decide(t.nodes[top.id], top.depth); err != nil {
				return nil, err
			}
			continue
		}

		node, err := s.enter(ind, top)
		if err != nil {
			return nil, err
		}

		if node.Kind == TerminalNode {
			ind.terminal(node, top.depth)
			continue
		}

		stack = append(stack, solveFrame{id: node.ID, depth: top.depth, expanded: true})
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, solveFrame{id: node.Children[i], depth: top.depth + 1})
		}
	}

	sol := ind.solution
	sol.ExpectedPayoffs = copyPayoffs(ind.values[t.root])
	if len(sol.AlternativeStrategies) == 0 {
		sol.AlternativeStrategies = nil
	}

	glog.V(1).Infof("Solved tree with %d nodes (%d decisions), multiple equilibria: %v",
		len(ind.visited), len(sol.Strategies), sol.HasMultipleEquilibria)
	return sol, nil
}

// enter validates a node on its first visit.
func (s *Solver) enter(ind *induction, f solveFrame) (*Node, error) {
	node := ind.t.nodes[f.id]
	if node == nil {
		return nil, errors.Wrapf(ErrMalformedTree, "node %d does not exist", f.id)
	}

	if _, ok := ind.visited[f.id]; ok {
		return nil, errors.Wrapf(ErrMalformedTree, "node %d is reachable more than once", f.id)
	}
	ind.visited[f.id] = struct{}{}

	if s.params.MaxNodes > 0 && len(ind.visited) > s.params.MaxNodes {
		return nil, errors.Wrapf(ErrLimitExceeded, "more than %d nodes", s.params.MaxNodes)
	}

	if s.params.MaxDepth > 0 && f.depth > s.params.MaxDepth {
		return nil, errors.Wrapf(ErrLimitExceeded, "node %d is deeper than %d", f.id, s.params.MaxDepth)
	}

	n := ind.t.playerCount
	switch node.Kind {
	case TerminalNode:
		if len(node.Payoffs) != n {
			return nil, errors.Wrapf(ErrMalformedTree,
				"terminal node %d has %d payoffs, want %d", node.ID, len(node.Payoffs), n)
		}
	case DecisionNode:
		if len(node.Children) == 0 {
			return nil, errors.Wrapf(ErrMalformedTree, "decision node %d has no actions", node.ID)
		} else if node.Player < 0 || node.Player >= n {
			return nil, errors.Wrapf(ErrMalformedTree,
				"decision node %d acts for player %d, have %d players", node.ID, node.Player, n)
		}
	default:
		return nil, errors.Wrapf(ErrMalformedTree, "node %d has unknown kind %v", node.ID, node.Kind)
	}

	return node, nil
}

func (ind *induction) terminal(node *Node, depth int) {
	ind.values[node.ID] = node.Payoffs
	ind.solution.Steps = append(ind.solution.Steps, Step{
		Description: "Terminal node " + strconv.Itoa(node.ID) +
			" reached with payoffs " + formatPayoffs(node.Payoffs),
		NodeID:  node.ID,
		Depth:   depth,
		Payoffs: copyPayoffs(node.Payoffs),
	})
}

// decide picks the best action at a decision node whose children
// have all been solved.
func (ind *induction) decide(node *Node, depth int) error {
	p := node.Player
	best := -1
	var bestValue float64
	var tied []int
	for i, child := range node.Children {
		v, ok := ind.values[child]
		if !ok {
			return errors.Wrapf(ErrMalformedTree, "child %d of node %d was not solved", child, node.ID)
		}

		if best < 0 || v[p] > bestValue {
			best, bestValue = i, v[p]
			tied = tied[:0]
		} else if v[p] == bestValue {
			tied = append(tied, i)
		}
	}

	chosen := node.Children[best]
	value := ind.values[chosen]
	label := ind.t.ActionLabel(chosen)
	for _, child := range node.Children {
		delete(ind.values, child)
	}
	ind.values[node.ID] = value

	sol := ind.solution
	sol.Strategies[node.ID] = label
	sol.Choices[node.ID] = chosen

	var alternatives []string
	if len(tied) > 0 {
		sol.HasMultipleEquilibria = true
		for _, i := range tied {
			alternatives = append(alternatives, ind.t.ActionLabel(node.Children[i]))
		}
		sol.AlternativeStrategies[node.ID] = alternatives
	}

	desc := ind.t.PlayerName(p) + " chooses " + label + " at node " +
		strconv.Itoa(node.ID) + " with payoffs " + formatPayoffs(value)
	if len(alternatives) > 0 {
		desc += " (tied with " + strings.Join(alternatives, ", ") + ")"
	}

	player := p
	sol.Steps = append(sol.Steps, Step{
		Description:        desc,
		NodeID:             node.ID,
		Depth:              depth,
		Payoffs:            copyPayoffs(value),
		Player:             &player,
		ChosenAction:       label,
		AlternativeActions: alternatives,
	})

	return nil
}

func copyPayoffs(v []float64) []float64 {
	return append([]float64(nil), v...)
}

func formatPayoffs(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
