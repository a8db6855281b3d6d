package depgraph

// CriticalPath returns the single longest dependency chain in the graph,
// measured in node count. The traversal refuses to revisit a node already
// on the current path, so it terminates on cyclic input instead of looping.
func CriticalPath(g *Graph) []string {
	n := g.NumNodes()
	if n == 0 {
		return []string{}
	}

	onPath := make([]bool, n)
	best := make([]int, 0)
	current := make([]int, 0, n)

	var extend func(idx int)
	extend = func(idx int) {
		onPath[idx] = true
		current = append(current, idx)

		if len(current) > len(best) {
			best = append(best[:0], current...)
		}

		for _, e := range g.outEdges[idx] {
			if !onPath[e.target] {
				extend(e.target)
			}
		}

		current = current[:len(current)-1]
		onPath[idx] = false
	}

	for idx := 0; idx < n; idx++ {
		extend(idx)
	}

	path := make([]string, len(best))
	for i, idx := range best {
		path[i] = g.nodes[idx].ID
	}
	return path
}
