package depgraph

import (
	"fmt"
	"os"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"insight/internal/errors"
)

// LayerRule declares one architectural layer: its name, the node-id
// prefixes that map into it, and the layers it may depend on directly.
type LayerRule struct {
	Name     string   `toml:"name"`
	Prefixes []string `toml:"prefixes"`
	Allowed  []string `toml:"allowed,omitempty"`
}

// LayerRules is the parsed layers.toml document. The allowed transitions
// form a partial order over layers; reachability under that order decides
// which edges are legal.
type LayerRules struct {
	Layers []LayerRule `toml:"layers"`
}

// LoadLayerRules parses a layers.toml file.
func LoadLayerRules(path string) (*LayerRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.LayerRulesInvalid,
			fmt.Sprintf("failed to read layer rules from %s", path), err)
	}

	var rules LayerRules
	if err := toml.Unmarshal(data, &rules); err != nil {
		return nil, errors.New(errors.LayerRulesInvalid,
			fmt.Sprintf("failed to parse layer rules from %s", path), err)
	}

	for _, l := range rules.Layers {
		if l.Name == "" {
			return nil, errors.New(errors.LayerRulesInvalid, "layer with empty name", nil)
		}
	}

	return &rules, nil
}

// Classify maps a node ID to its layer by longest matching prefix.
// Returns "" for nodes no rule covers.
func (r *LayerRules) Classify(nodeID string) string {
	best := ""
	bestLen := 0
	for _, layer := range r.Layers {
		for _, prefix := range layer.Prefixes {
			if strings.HasPrefix(nodeID, prefix) && len(prefix) > bestLen {
				best = layer.Name
				bestLen = len(prefix)
			}
		}
	}
	return best
}

// AllowedTransitions returns the direct transition table declared by the rules.
func (r *LayerRules) AllowedTransitions() map[string][]string {
	allowed := make(map[string][]string, len(r.Layers))
	for _, layer := range r.Layers {
		allowed[layer.Name] = layer.Allowed
	}
	return allowed
}

// Violation is a dependency edge crossing layers in a direction the layer
// hierarchy disallows.
type Violation struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	FromLayer string   `json:"fromLayer"`
	ToLayer   string   `json:"toLayer"`
	Kind      EdgeKind `json:"kind"`
}

// Classifier maps a node ID to a layer name; "" means unclassified.
type Classifier func(nodeID string) string

// BoundaryViolations reports every edge whose target layer is not reachable
// from the source layer under the allowed-transition table. Edges touching
// an unclassified node are skipped; same-layer edges are always legal.
func BoundaryViolations(g *Graph, classify Classifier, allowed map[string][]string) []Violation {
	reachable := transitionClosure(allowed)

	violations := make([]Violation, 0)
	for i, out := range g.outEdges {
		fromLayer := classify(g.nodes[i].ID)
		if fromLayer == "" {
			continue
		}
		for _, e := range out {
			toLayer := classify(g.nodes[e.target].ID)
			if toLayer == "" || toLayer == fromLayer {
				continue
			}
			if reachable[fromLayer][toLayer] {
				continue
			}
			violations = append(violations, Violation{
				From:      g.nodes[i].ID,
				To:        g.nodes[e.target].ID,
				FromLayer: fromLayer,
				ToLayer:   toLayer,
				Kind:      e.kind,
			})
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].From != violations[j].From {
			return violations[i].From < violations[j].From
		}
		return violations[i].To < violations[j].To
	})

	return violations
}

// BoundaryViolationsWithRules is the file-rule convenience wrapper.
func BoundaryViolationsWithRules(g *Graph, rules *LayerRules) []Violation {
	return BoundaryViolations(g, rules.Classify, rules.AllowedTransitions())
}

// transitionClosure expands the direct transition table into full
// reachability: if api may use domain and domain may use infra, api may
// reach infra too.
func transitionClosure(allowed map[string][]string) map[string]map[string]bool {
	closure := make(map[string]map[string]bool, len(allowed))

	for layer := range allowed {
		reached := make(map[string]bool)
		queue := append([]string(nil), allowed[layer]...)
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			if reached[next] {
				continue
			}
			reached[next] = true
			queue = append(queue, allowed[next]...)
		}
		closure[layer] = reached
	}

	return closure
}
