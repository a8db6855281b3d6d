package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"insight/internal/confidence"
)

var (
	scoreFormat       string
	scorePatternMatch float64
	scoreContext      float64
	scoreStructure    float64
	scoreHistorical   float64
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a finding's confidence against learned history",
	Long: `Score a finding from its four factor scores (0-100), calibrated
against the pattern store's history for the signature.

When --historical is omitted it is filled from the signature's learned
success rate, or from the detector-family default for unseen signatures.

Example:
  insight score --pattern-match=85 --context=70 --structure=60 \
      --category=database --detector=db-analyzer --kind=missing-index \
      --file=internal/db/users.go --line=42`,
	Run: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "json", "Output format (json, human)")
	scoreCmd.Flags().Float64Var(&scorePatternMatch, "pattern-match", 0, "Pattern-match strength (0-100)")
	scoreCmd.Flags().Float64Var(&scoreContext, "context", 0, "Context appropriateness (0-100)")
	scoreCmd.Flags().Float64Var(&scoreStructure, "structure", 0, "Code-structure quality (0-100)")
	scoreCmd.Flags().Float64Var(&scoreHistorical, "historical", -1, "Historical accuracy (0-100, omit to use learned history)")

	scoreCmd.Flags().StringVar(&sigCategory, "category", "", "Pattern category")
	scoreCmd.Flags().StringVar(&sigDetector, "detector", "", "Detector id")
	scoreCmd.Flags().StringVar(&sigKind, "kind", "", "Pattern kind")
	scoreCmd.Flags().StringVar(&sigFile, "file", "", "File path")
	scoreCmd.Flags().IntVar(&sigLine, "line", 0, "Line number")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) {
	sig := mustSignatureFromFlags()

	logger := newLogger(scoreFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	defaults, err := confidence.LoadFamilyDefaults(filepath.Join(repoRoot, ".insight", "detectors.toml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading detector defaults: %v\n", err)
		os.Exit(1)
	}

	engine := confidence.NewEngine(confidence.EngineOptions{
		Store:                    store,
		Defaults:                 defaults,
		Logger:                   logger,
		EnableAutoFixSuggestions: cfg.Learning.EnableAutoFixSuggestions,
		AutoFixMinConfidence:     float64(cfg.Learning.AutoFixMinConfidence),
	})

	factors := confidence.Factors{
		PatternMatch: scorePatternMatch,
		Context:      scoreContext,
		Structure:    scoreStructure,
	}
	if scoreHistorical >= 0 {
		factors.Historical = &scoreHistorical
	}

	result := engine.Score(factors, sig)

	if scoreFormat == "human" {
		fmt.Printf("Score: %.0f (%s)\n", result.Score, result.Level)
		fmt.Printf("  pattern=%.0f context=%.0f structure=%.0f historical=%.0f\n",
			result.Breakdown.PatternMatch, result.Breakdown.Context,
			result.Breakdown.Structure, result.Breakdown.Historical)
		fmt.Printf("  %s\n", result.Explanation)
		if engine.AutoFixEligible(result) {
			fmt.Println("  Eligible for auto-fix suggestion.")
		}
		return
	}

	printJSON(map[string]interface{}{
		"patternId":       sig.PatternID(),
		"score":           result.Score,
		"level":           result.Level,
		"breakdown":       result.Breakdown,
		"explanation":     result.Explanation,
		"autoFixEligible": engine.AutoFixEligible(result),
	})
}
