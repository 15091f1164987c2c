// spne-solve prints the subgame-perfect equilibrium of a game tree
// read from a JSON snapshot file, stdin, or one of the built-in games.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/go-spne"
	"github.com/timpalpant/go-spne/games"
	"github.com/timpalpant/go-spne/tree"
)

func loadTree(input, demo string, size int) (*spne.Tree, error) {
	switch demo {
	case "":
	case "centipede":
		return games.Centipede(size), nil
	case "entry":
		return games.EntryDeterrence(), nil
	case "ultimatum":
		return games.Ultimatum(size), nil
	default:
		return nil, errors.Errorf("unknown demo game %q", demo)
	}

	if input == "" || input == "-" {
		return spne.LoadTree(os.Stdin)
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return spne.LoadTree(f)
}

func printSolution(w io.Writer, t *spne.Tree, sol *spne.Solution, verbose bool) {
	if sol == nil {
		fmt.Fprintln(w, "Empty tree: no solution.")
		return
	}

	fmt.Fprintf(w, "Nodes: %d (%d decision, %d terminal), depth %d\n",
		t.Len(), tree.CountDecisionNodes(t), tree.CountTerminalNodes(t), tree.Depth(t))

	fmt.Fprintln(w, "Expected payoffs:")
	for i, p := range sol.ExpectedPayoffs {
		fmt.Fprintf(w, "  %s: %.2f\n", t.PlayerName(i), p)
	}

	ids := make([]int, 0, len(sol.Strategies))
	for id := range sol.Strategies {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fmt.Fprintln(w, "Strategies:")
	for _, id := range ids {
		node := t.GetNode(id)
		line := fmt.Sprintf("  node %d (%s): %s", id, t.PlayerName(node.Player), sol.Strategies[id])
		if alternatives := sol.AlternativeStrategies[id]; len(alternatives) > 0 {
			line += " [also optimal: " + strings.Join(alternatives, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}

	path := tree.EquilibriumPath(t, sol)
	strs := make([]string, len(path))
	for i, id := range path {
		strs[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(w, "Equilibrium path: %s\n", strings.Join(strs, " -> "))

	if sol.HasMultipleEquilibria {
		fmt.Fprintln(w, "Note: ties found, the game has multiple subgame-perfect equilibria.")
	}

	if verbose {
		fmt.Fprintln(w, "Steps:")
		for i, step := range sol.Steps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step.Description)
		}
	}
}

func main() {
	input := flag.String("input", "", "Path to a JSON tree snapshot (default: stdin)")
	demo := flag.String("demo", "", "Solve a built-in game instead: centipede, entry or ultimatum")
	size := flag.Int("size", 4, "Rounds (centipede) or pie size (ultimatum) of the demo game")
	maxNodes := flag.Int("max_nodes", 0, "Reject trees with more nodes (0 = unlimited)")
	maxDepth := flag.Int("max_depth", 0, "Reject trees deeper than this (0 = unlimited)")
	steps := flag.Bool("steps", false, "Print the backward induction trace")
	flag.Parse()
	defer glog.Flush()

	t, err := loadTree(*input, *demo, *size)
	if err != nil {
		glog.Exitf("Failed to load tree: %v", err)
	}

	solver := spne.NewSolver(spne.Params{MaxNodes: *maxNodes, MaxDepth: *maxDepth})
	sol, err := solver.Solve(t)
	if err != nil {
		glog.Exitf("Failed to solve tree: %v", err)
	}

	printSolution(os.Stdout, t, sol, *steps)
}
