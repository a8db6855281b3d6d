package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"insight/internal/depgraph"
	"insight/internal/scipfacts"
)

var (
	graphFormat   string
	graphFromSCIP bool
	// affected subcommand flags
	affectedChanged []string
	// violations subcommand flags
	violationsRules string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Analyze the dependency graph",
	Long: `Analyze a dependency graph built from adjacency facts.

Facts are read from a JSON or YAML file of {node, kind, dependsOn,
devDependsOn} entries, or from a SCIP index with --scip.

Examples:
  insight graph cycles deps.yaml
  insight graph order deps.json
  insight graph affected deps.yaml --changed=internal/db/users.go
  insight graph violations deps.yaml --rules=.insight/layers.toml
  insight graph cycles index.scip --scip`,
}

var graphCyclesCmd = &cobra.Command{
	Use:   "cycles <facts-file>",
	Short: "Detect dependency cycles",
	Long: `Detect dependency cycles.

Each cycle is reported once with a severity band: two-node cycles are
high severity because they indicate immediate mutual coupling, three- and
four-node cycles are medium, longer cycles are low.`,
	Args: cobra.ExactArgs(1),
	Run:  runGraphCycles,
}

var graphOrderCmd = &cobra.Command{
	Use:   "order <facts-file>",
	Short: "Compute a topological build order",
	Long: `Compute a topological order over dependency edges.

Nodes that participate in a cycle are omitted from the order; the
omission is the signal that a cycle exists, not an error.`,
	Args: cobra.ExactArgs(1),
	Run:  runGraphOrder,
}

var graphCriticalCmd = &cobra.Command{
	Use:   "critical <facts-file>",
	Short: "Find the longest dependency chain",
	Args:  cobra.ExactArgs(1),
	Run:   runGraphCritical,
}

var graphAffectedCmd = &cobra.Command{
	Use:   "affected <facts-file>",
	Short: "Compute the set of nodes affected by a change",
	Long: `Compute every node that depends, directly or transitively, on any
of the changed nodes.

Examples:
  insight graph affected deps.yaml --changed=internal/db/users.go
  insight graph affected deps.yaml --changed=a.go --changed=b.go`,
	Args: cobra.ExactArgs(1),
	Run:  runGraphAffected,
}

var graphMetricsCmd = &cobra.Command{
	Use:   "metrics <facts-file>",
	Short: "Report fan-in, fan-out, and instability per node",
	Args:  cobra.ExactArgs(1),
	Run:   runGraphMetrics,
}

var graphViolationsCmd = &cobra.Command{
	Use:   "violations <facts-file>",
	Short: "Report layer boundary violations",
	Long: `Report every dependency edge that crosses architectural layers in a
direction the layer rules disallow.

Layer rules are read from a TOML file mapping path prefixes to layers
and listing the allowed transitions between them.`,
	Args: cobra.ExactArgs(1),
	Run:  runGraphViolations,
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats <facts-file>",
	Short: "Summarize the graph",
	Args:  cobra.ExactArgs(1),
	Run:   runGraphStats,
}

func init() {
	graphCmd.PersistentFlags().StringVar(&graphFormat, "format", "json", "Output format (json, human)")
	graphCmd.PersistentFlags().BoolVar(&graphFromSCIP, "scip", false, "Treat the input as a SCIP index")

	graphAffectedCmd.Flags().StringArrayVar(&affectedChanged, "changed", nil, "Changed node id (repeatable)")
	graphViolationsCmd.Flags().StringVar(&violationsRules, "rules", "", "Layer rules file (default: graph.layerRulesPath from config)")

	graphCmd.AddCommand(graphCyclesCmd)
	graphCmd.AddCommand(graphOrderCmd)
	graphCmd.AddCommand(graphCriticalCmd)
	graphCmd.AddCommand(graphAffectedCmd)
	graphCmd.AddCommand(graphMetricsCmd)
	graphCmd.AddCommand(graphViolationsCmd)
	graphCmd.AddCommand(graphStatsCmd)
	rootCmd.AddCommand(graphCmd)
}

// mustLoadGraph reads facts from the given path and builds the graph,
// enforcing the configured size guards.
func mustLoadGraph(path string) *depgraph.Graph {
	logger := newLogger(graphFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)

	var facts []depgraph.Fact
	var err error
	if graphFromSCIP {
		facts, err = scipfacts.Load(path)
	} else {
		facts, err = depgraph.LoadFacts(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading facts: %v\n", err)
		os.Exit(1)
	}
	if err := depgraph.ValidateFacts(facts); err != nil {
		fmt.Fprintf(os.Stderr, "Error validating facts: %v\n", err)
		os.Exit(1)
	}

	g := depgraph.BuildFromFacts(facts)
	if cfg.Graph.MaxNodes > 0 && g.NumNodes() > cfg.Graph.MaxNodes {
		fmt.Fprintf(os.Stderr, "Error: graph exceeds maxNodes (%d > %d)\n", g.NumNodes(), cfg.Graph.MaxNodes)
		os.Exit(1)
	}
	if cfg.Graph.MaxEdges > 0 && g.NumEdges() > cfg.Graph.MaxEdges {
		fmt.Fprintf(os.Stderr, "Error: graph exceeds maxEdges (%d > %d)\n", g.NumEdges(), cfg.Graph.MaxEdges)
		os.Exit(1)
	}
	return g
}

func runGraphCycles(cmd *cobra.Command, args []string) {
	g := mustLoadGraph(args[0])
	cycles := depgraph.DetectCycles(g)

	if graphFormat == "human" {
		if len(cycles) == 0 {
			fmt.Println("No cycles found.")
			return
		}
		for _, c := range cycles {
			fmt.Printf("[%s] %s (length %d)\n", c.Severity, strings.Join(c.Path, " -> "), c.Length)
		}
		return
	}

	printJSON(map[string]interface{}{
		"cycles": cycles,
		"count":  len(cycles),
	})
}

func runGraphOrder(cmd *cobra.Command, args []string) {
	g := mustLoadGraph(args[0])
	order := depgraph.TopologicalOrder(g)
	omitted := g.NumNodes() - len(order)

	if graphFormat == "human" {
		for i, id := range order {
			fmt.Printf("%4d  %s\n", i+1, id)
		}
		if omitted > 0 {
			fmt.Printf("\n%d node(s) omitted (cyclic)\n", omitted)
		}
		return
	}

	printJSON(map[string]interface{}{
		"order":        order,
		"omittedCount": omitted,
	})
}

func runGraphCritical(cmd *cobra.Command, args []string) {
	g := mustLoadGraph(args[0])
	path := depgraph.CriticalPath(g)

	if graphFormat == "human" {
		fmt.Printf("Critical path (%d nodes): %s\n", len(path), strings.Join(path, " -> "))
		return
	}

	printJSON(map[string]interface{}{
		"path":   path,
		"length": len(path),
	})
}

func runGraphAffected(cmd *cobra.Command, args []string) {
	if len(affectedChanged) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one --changed node is required")
		os.Exit(1)
	}

	g := mustLoadGraph(args[0])
	affected := depgraph.Affected(g, affectedChanged)

	if graphFormat == "human" {
		fmt.Printf("%d node(s) affected by changes to %s:\n", len(affected), strings.Join(affectedChanged, ", "))
		for _, id := range affected {
			fmt.Printf("  %s\n", id)
		}
		return
	}

	printJSON(map[string]interface{}{
		"changed":  affectedChanged,
		"affected": affected,
		"count":    len(affected),
	})
}

func runGraphMetrics(cmd *cobra.Command, args []string) {
	g := mustLoadGraph(args[0])
	metrics := depgraph.Metrics(g)

	if graphFormat == "human" {
		fmt.Printf("%-50s %8s %8s %12s\n", "NODE", "FAN-IN", "FAN-OUT", "INSTABILITY")
		for _, m := range metrics {
			fmt.Printf("%-50s %8d %8d %12.2f\n", m.ID, m.FanIn, m.FanOut, m.Instability)
		}
		return
	}

	printJSON(map[string]interface{}{
		"nodes": metrics,
	})
}

func runGraphViolations(cmd *cobra.Command, args []string) {
	logger := newLogger(graphFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)

	rulesPath := violationsRules
	if rulesPath == "" {
		rulesPath = cfg.Graph.LayerRulesPath
	}
	if !filepath.IsAbs(rulesPath) {
		rulesPath = filepath.Join(repoRoot, rulesPath)
	}

	rules, err := depgraph.LoadLayerRules(rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading layer rules: %v\n", err)
		os.Exit(1)
	}

	g := mustLoadGraph(args[0])
	violations := depgraph.BoundaryViolationsWithRules(g, rules)

	if graphFormat == "human" {
		if len(violations) == 0 {
			fmt.Println("No boundary violations.")
			return
		}
		for _, v := range violations {
			fmt.Printf("%s (%s) -> %s (%s)\n", v.From, v.FromLayer, v.To, v.ToLayer)
		}
		return
	}

	printJSON(map[string]interface{}{
		"violations": violations,
		"count":      len(violations),
	})
}

func runGraphStats(cmd *cobra.Command, args []string) {
	g := mustLoadGraph(args[0])
	printJSON(g.Stats())
}
