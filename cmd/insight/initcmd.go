package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"insight/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .insight directory with a default configuration",
	Run:   runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const exampleLayerRules = `# Layer rules for boundary-violation analysis.
# Each layer lists the path prefixes it owns and the layers it may depend on.

[[layers]]
name = "cmd"
prefixes = ["cmd/"]
allowed = ["core", "infra"]

[[layers]]
name = "core"
prefixes = ["internal/"]
allowed = ["infra"]

[[layers]]
name = "infra"
prefixes = ["pkg/"]
allowed = []
`

func runInit(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()

	configPath := filepath.Join(repoRoot, ".insight", "config.json")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", configPath)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = repoRoot
	if err := cfg.Save(repoRoot); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}

	rulesPath := filepath.Join(repoRoot, cfg.Graph.LayerRulesPath)
	if _, err := os.Stat(rulesPath); os.IsNotExist(err) {
		if err := os.WriteFile(rulesPath, []byte(exampleLayerRules), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing layer rules: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Initialized %s\n", filepath.Join(repoRoot, ".insight"))
}
