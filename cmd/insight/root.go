package main

import (
	"insight/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "insight",
	Short: "insight - dependency graph and adaptive confidence analysis",
	Long: `insight analyzes a repository's dependency structure and calibrates
detector findings against learned history.

The graph commands consume adjacency facts (JSON, YAML, or a SCIP index)
and report cycles, build order, critical paths, change impact, and layer
boundary violations. The patterns commands manage the learned pattern
store that adjusts finding confidence over time.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("insight version {{.Version}}\n")
}
