package depgraph

// TopologicalOrder linearizes the graph with Kahn's algorithm over
// dependency-kind edges. Nodes whose in-degree never reaches zero sit on a
// cycle and are omitted from the result; that omission is the documented
// cycle signal, not an error.
func TopologicalOrder(g *Graph) []string {
	n := g.NumNodes()

	inDegree := make([]int, n)
	for _, out := range g.outEdges {
		for _, e := range out {
			if e.kind != DependencyEdge {
				continue
			}
			inDegree[e.target]++
		}
	}

	queue := make([]int, 0, n)
	for idx := 0; idx < n; idx++ {
		if inDegree[idx] == 0 {
			queue = append(queue, idx)
		}
	}

	order := make([]string, 0, n)
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		order = append(order, g.nodes[idx].ID)

		for _, e := range g.outEdges[idx] {
			if e.kind != DependencyEdge {
				continue
			}
			inDegree[e.target]--
			if inDegree[e.target] == 0 {
				queue = append(queue, e.target)
			}
		}
	}

	return order
}
