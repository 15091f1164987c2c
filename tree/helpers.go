// Package tree implements traversals and summaries of spne game trees.
package tree

import (
	"github.com/timpalpant/go-spne"
)

// Visit calls visitor on every node reachable from the root in pre-order,
// along with its depth (0 for the root). Children are visited in action order.
func Visit(t *spne.Tree, visitor func(node *spne.Node, depth int)) {
	type frame struct {
		id    int
		depth int
	}

	if t.Root() == spne.NoNode {
		return
	}

	stack := []frame{{id: t.Root()}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := t.GetNode(top.id)
		if node == nil {
			continue
		}

		visitor(node, top.depth)
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: node.Children[i], depth: top.depth + 1})
		}
	}
}

func CountNodes(t *spne.Tree) int {
	total := 0
	Visit(t, func(node *spne.Node, depth int) { total++ })
	return total
}

func CountTerminalNodes(t *spne.Tree) int {
	return countKind(t, spne.TerminalNode)
}

func CountDecisionNodes(t *spne.Tree) int {
	return countKind(t, spne.DecisionNode)
}

func countKind(t *spne.Tree, kind spne.NodeKind) int {
	total := 0
	Visit(t, func(node *spne.Node, depth int) {
		if node.Kind == kind {
			total++
		}
	})

	return total
}

// Depth returns the number of actions on the longest path from the root,
// or -1 for an empty tree.
func Depth(t *spne.Tree) int {
	result := -1
	Visit(t, func(node *spne.Node, depth int) {
		if depth > result {
			result = depth
		}
	})

	return result
}

// EquilibriumPath returns the node ids reached from the root when every
// player follows the solution's chosen actions.
func EquilibriumPath(t *spne.Tree, sol *spne.Solution) []int {
	if sol == nil || t.Root() == spne.NoNode {
		return nil
	}

	path := []int{t.Root()}
	for {
		next, ok := sol.Choices[path[len(path)-1]]
		if !ok || t.GetNode(next) == nil || len(path) > t.Len() {
			return path
		}

		path = append(path, next)
	}
}
