// Package depgraph provides the dependency graph model and algorithms for
// repository analysis: cycle detection, topological ordering, critical-path
// and change-impact analysis, and layering metrics.
package depgraph

import (
	"sort"
)

// NodeKind classifies a graph node
type NodeKind string

const (
	// FileNode is a single source file
	FileNode NodeKind = "file"
	// PackageNode is a package or module
	PackageNode NodeKind = "package"
)

// EdgeKind classifies a dependency edge
type EdgeKind string

const (
	// DependencyEdge is a regular (production) dependency
	DependencyEdge EdgeKind = "dependency"
	// DevDependencyEdge is a development-only dependency
	DevDependencyEdge EdgeKind = "devDependency"
)

// Node represents a file or package in the dependency graph.
// Identity is the ID.
type Node struct {
	ID       string            `json:"id"`
	Kind     NodeKind          `json:"kind"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Edge represents a directed, typed, weighted dependency edge.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Kind   EdgeKind `json:"kind"`
	Weight float64  `json:"weight"`
}

type edgeEntry struct {
	target int
	kind   EdgeKind
	weight float64
}

// Graph is a sparse directed dependency graph over an arena of integer
// node indices. All traversals are pure functions over this structure,
// so independent analyses can run concurrently on the same graph.
type Graph struct {
	nodes   []Node
	nodeIdx map[string]int

	// kindDeclared marks nodes whose kind was stated explicitly, as
	// opposed to defaulted during auto-registration.
	kindDeclared []bool

	outEdges [][]edgeEntry
	inEdges  [][]edgeEntry
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:        make([]Node, 0),
		nodeIdx:      make(map[string]int),
		kindDeclared: make([]bool, 0),
		outEdges:     make([][]edgeEntry, 0),
		inEdges:      make([][]edgeEntry, 0),
	}
}

// AddNode registers a node if it doesn't exist and returns its index.
// Re-adding an existing ID upgrades an auto-registered node's kind and
// metadata but never duplicates it, so facts carry the same meaning in
// any order.
func (g *Graph) AddNode(node Node) int {
	declared := node.Kind != ""
	if !declared {
		node.Kind = FileNode
	}
	if idx, ok := g.nodeIdx[node.ID]; ok {
		if declared && !g.kindDeclared[idx] {
			g.nodes[idx].Kind = node.Kind
			g.kindDeclared[idx] = true
		}
		if g.nodes[idx].Metadata == nil && node.Metadata != nil {
			g.nodes[idx].Metadata = node.Metadata
		}
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, node)
	g.nodeIdx[node.ID] = idx
	g.kindDeclared = append(g.kindDeclared, declared)
	g.outEdges = append(g.outEdges, nil)
	g.inEdges = append(g.inEdges, nil)
	return idx
}

// AddEdge adds a directed edge. Nodes referenced for the first time are
// auto-registered; a dangling target is not an error. Self-loops are kept,
// they are valid length-1 cycles.
func (g *Graph) AddEdge(from, to string, kind EdgeKind, weight float64) {
	if kind == "" {
		kind = DependencyEdge
	}
	if weight == 0 {
		weight = 1.0
	}
	srcIdx := g.AddNode(Node{ID: from})
	dstIdx := g.AddNode(Node{ID: to})

	g.outEdges[srcIdx] = append(g.outEdges[srcIdx], edgeEntry{target: dstIdx, kind: kind, weight: weight})
	g.inEdges[dstIdx] = append(g.inEdges[dstIdx], edgeEntry{target: srcIdx, kind: kind, weight: weight})
}

// Fact is one adjacency fact supplied by a caller that has already parsed
// imports or manifest dependencies from source.
type Fact struct {
	Node         string   `json:"node" yaml:"node"`
	Kind         NodeKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	DependsOn    []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	DevDependsOn []string `json:"devDependsOn,omitempty" yaml:"devDependsOn,omitempty"`
}

// BuildFromFacts constructs a graph from adjacency facts. Targets that
// never appear as a fact's own node are auto-registered.
func BuildFromFacts(facts []Fact) *Graph {
	g := NewGraph()
	for _, f := range facts {
		g.AddNode(Node{ID: f.Node, Kind: f.Kind})
		for _, dep := range f.DependsOn {
			g.AddEdge(f.Node, dep, DependencyEdge, 1.0)
		}
		for _, dep := range f.DevDependsOn {
			g.AddEdge(f.Node, dep, DevDependencyEdge, 1.0)
		}
	}
	return g
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the total number of edges.
func (g *Graph) NumEdges() int {
	total := 0
	for _, edges := range g.outEdges {
		total += len(edges)
	}
	return total
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

// NodeByID returns the node with the given ID.
func (g *Graph) NodeByID(id string) (Node, bool) {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// AllNodes returns all node IDs in insertion order.
func (g *Graph) AllNodes() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Edges returns all edges in the graph.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.NumEdges())
	for i, out := range g.outEdges {
		for _, e := range out {
			edges = append(edges, Edge{
				From:   g.nodes[i].ID,
				To:     g.nodes[e.target].ID,
				Kind:   e.kind,
				Weight: e.weight,
			})
		}
	}
	return edges
}

// Neighbors returns the outgoing neighbors of a node.
func (g *Graph) Neighbors(id string) []string {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	neighbors := make([]string, len(g.outEdges[idx]))
	for i, e := range g.outEdges[idx] {
		neighbors[i] = g.nodes[e.target].ID
	}
	return neighbors
}

// FanIn returns the count of incoming edges for a node.
func (g *Graph) FanIn(id string) int {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return 0
	}
	return len(g.inEdges[idx])
}

// FanOut returns the count of outgoing edges for a node.
func (g *Graph) FanOut(id string) int {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return 0
	}
	return len(g.outEdges[idx])
}

// Instability computes Martin's instability metric for a node:
// Ce / (Ca + Ce) where Ce = fan-out, Ca = fan-in.
func (g *Graph) Instability(id string) float64 {
	ca := g.FanIn(id)
	ce := g.FanOut(id)
	total := ca + ce
	if total == 0 {
		return 0.5 // Neutral if no couplings
	}
	return float64(ce) / float64(total)
}

// GraphStats summarizes the shape of the graph.
type GraphStats struct {
	TotalNodes         int     `json:"totalNodes"`
	TotalEdges         int     `json:"totalEdges"`
	FileNodes          int     `json:"fileNodes"`
	PackageNodes       int     `json:"packageNodes"`
	DependencyEdges    int     `json:"dependencyEdges"`
	DevDependencyEdges int     `json:"devDependencyEdges"`
	AvgOutDegree       float64 `json:"avgOutDegree"`
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() GraphStats {
	stats := GraphStats{
		TotalNodes: g.NumNodes(),
		TotalEdges: g.NumEdges(),
	}

	for _, n := range g.nodes {
		switch n.Kind {
		case FileNode:
			stats.FileNodes++
		case PackageNode:
			stats.PackageNodes++
		}
	}

	for _, out := range g.outEdges {
		for _, e := range out {
			switch e.kind {
			case DependencyEdge:
				stats.DependencyEdges++
			case DevDependencyEdge:
				stats.DevDependencyEdges++
			}
		}
	}

	if stats.TotalNodes > 0 {
		stats.AvgOutDegree = float64(stats.TotalEdges) / float64(stats.TotalNodes)
	}

	return stats
}

// sortedIDs returns the IDs for a set of node indices, sorted for
// deterministic output.
func (g *Graph) sortedIDs(indices map[int]bool) []string {
	ids := make([]string, 0, len(indices))
	for idx := range indices {
		ids = append(ids, g.nodes[idx].ID)
	}
	sort.Strings(ids)
	return ids
}
