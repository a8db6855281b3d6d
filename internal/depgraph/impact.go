package depgraph

// Affected computes the transitive closure of ancestors for the changed
// nodes: everything that depends, directly or indirectly, on any of them.
// The changed nodes themselves are not part of the result. A visited set
// keeps the reverse traversal safe on cyclic input.
func Affected(g *Graph, changed []string) []string {
	changedIdx := make(map[int]bool, len(changed))
	for _, id := range changed {
		if idx, ok := g.nodeIdx[id]; ok {
			changedIdx[idx] = true
		}
	}

	visited := make(map[int]bool)
	queue := make([]int, 0, len(changedIdx))
	for idx := range changedIdx {
		queue = append(queue, idx)
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		for _, e := range g.inEdges[idx] {
			if visited[e.target] || changedIdx[e.target] {
				continue
			}
			visited[e.target] = true
			queue = append(queue, e.target)
		}
	}

	return g.sortedIDs(visited)
}

// NodeMetrics holds per-node coupling metrics.
type NodeMetrics struct {
	ID          string  `json:"id"`
	FanIn       int     `json:"fanIn"`
	FanOut      int     `json:"fanOut"`
	Instability float64 `json:"instability"`
}

// Metrics computes fan-in, fan-out and instability for every node.
func Metrics(g *Graph) []NodeMetrics {
	metrics := make([]NodeMetrics, len(g.nodes))
	for i, n := range g.nodes {
		metrics[i] = NodeMetrics{
			ID:          n.ID,
			FanIn:       len(g.inEdges[i]),
			FanOut:      len(g.outEdges[i]),
			Instability: g.Instability(n.ID),
		}
	}
	return metrics
}
