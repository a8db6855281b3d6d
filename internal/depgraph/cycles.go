package depgraph

import (
	"sort"
	"strings"
)

// CycleSeverity classifies how disruptive a dependency cycle is
type CycleSeverity string

const (
	// SeverityHigh marks direct two-node (or self) cycles; they indicate
	// immediate mutual coupling
	SeverityHigh CycleSeverity = "high"
	// SeverityMedium marks cycles of length 3-4
	SeverityMedium CycleSeverity = "medium"
	// SeverityLow marks longer cycles
	SeverityLow CycleSeverity = "low"
)

// Cycle is one circular dependency chain. Path holds the node IDs in
// traversal order, without repeating the closing node.
type Cycle struct {
	Path     []string      `json:"path"`
	Length   int           `json:"length"`
	Severity CycleSeverity `json:"severity"`
}

// GetCycleSeverity returns the severity band for a cycle of the given length.
func GetCycleSeverity(length int) CycleSeverity {
	switch {
	case length <= 2:
		return SeverityHigh
	case length <= 4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// DetectCycles enumerates dependency cycles via depth-first traversal.
// When the traversal reaches a node already on the recursion stack, the
// cycle is the path slice from that node's first occurrence to the current
// node. Cycles are deduplicated by canonical sorted node-set, so a cycle is
// reported once regardless of which node the traversal started from.
// A cyclic graph is a reportable result here, never an error.
func DetectCycles(g *Graph) []Cycle {
	n := g.NumNodes()
	visited := make([]bool, n)
	onStack := make([]bool, n)
	path := make([]int, 0, n)

	cycles := make([]Cycle, 0)
	seen := make(map[string]bool)

	var visit func(idx int)
	visit = func(idx int) {
		visited[idx] = true
		onStack[idx] = true
		path = append(path, idx)

		for _, e := range g.outEdges[idx] {
			if !visited[e.target] {
				visit(e.target)
			} else if onStack[e.target] {
				recordCycle(g, path, e.target, seen, &cycles)
			}
		}

		path = path[:len(path)-1]
		onStack[idx] = false
	}

	for idx := 0; idx < n; idx++ {
		if !visited[idx] {
			visit(idx)
		}
	}

	// Deterministic order: shortest first, then lexicographic
	sort.Slice(cycles, func(i, j int) bool {
		if cycles[i].Length != cycles[j].Length {
			return cycles[i].Length < cycles[j].Length
		}
		return strings.Join(cycles[i].Path, ",") < strings.Join(cycles[j].Path, ",")
	})

	return cycles
}

// recordCycle extracts the path slice from the first occurrence of start to
// the end of the current path and appends it if its canonical node-set has
// not been seen.
func recordCycle(g *Graph, path []int, start int, seen map[string]bool, cycles *[]Cycle) {
	from := -1
	for i, idx := range path {
		if idx == start {
			from = i
			break
		}
	}
	if from < 0 {
		return
	}

	ids := make([]string, 0, len(path)-from)
	for _, idx := range path[from:] {
		ids = append(ids, g.nodes[idx].ID)
	}

	key := canonicalCycleKey(ids)
	if seen[key] {
		return
	}
	seen[key] = true

	*cycles = append(*cycles, Cycle{
		Path:     ids,
		Length:   len(ids),
		Severity: GetCycleSeverity(len(ids)),
	})
}

// canonicalCycleKey builds the dedup key: the sorted node-id tuple.
func canonicalCycleKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
