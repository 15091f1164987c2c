package spne

// postOrder returns the ids of the subtree rooted at id, with every
// node listed after all of its descendants.
func postOrder(t *Tree, id int) []int {
	type frame struct {
		id       int
		expanded bool
	}

	var result []int
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := t.nodes[top.id]
		if node == nil {
			continue
		}

		if top.expanded {
			result = append(result, top.id)
			continue
		}

		stack = append(stack, frame{id: top.id, expanded: true})
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: node.Children[i]})
		}
	}

	return result
}
