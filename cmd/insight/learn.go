package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	learnFormat     string
	learnConfidence float64
	learnTags       []string
	// correct subcommand flags
	correctValid  bool
	correctReason string
	correctUser   string
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Record detection outcomes into the pattern store",
	Long: `Record detection outcomes into the pattern store.

Detectors report ground truth back here after a finding is confirmed or
refuted, closing the learning loop that drives confidence adjustment.`,
}

var learnSuccessCmd = &cobra.Command{
	Use:   "success",
	Short: "Record a confirmed-correct detection",
	Run:   runLearnOutcome(true),
}

var learnFailureCmd = &cobra.Command{
	Use:   "failure",
	Short: "Record a false-positive detection",
	Run:   runLearnOutcome(false),
}

var learnCorrectCmd = &cobra.Command{
	Use:   "correct",
	Short: "Record explicit human feedback on a pattern",
	Long: `Record explicit human feedback on a pattern.

Example:
  insight learn correct --valid=false --reason="index already exists" \
      --user=dev1 --confidence=80 --category=database \
      --detector=db-analyzer --kind=missing-index \
      --file=internal/db/users.go --line=42`,
	Run: runLearnCorrect,
}

func init() {
	learnCmd.PersistentFlags().StringVar(&learnFormat, "format", "json", "Output format (json, human)")
	learnCmd.PersistentFlags().Float64Var(&learnConfidence, "confidence", 0, "Confidence the finding carried (0-100)")
	learnCmd.PersistentFlags().StringVar(&sigCategory, "category", "", "Pattern category")
	learnCmd.PersistentFlags().StringVar(&sigDetector, "detector", "", "Detector id")
	learnCmd.PersistentFlags().StringVar(&sigKind, "kind", "", "Pattern kind")
	learnCmd.PersistentFlags().StringVar(&sigFile, "file", "", "File path")
	learnCmd.PersistentFlags().IntVar(&sigLine, "line", 0, "Line number")

	learnSuccessCmd.Flags().StringArrayVar(&learnTags, "tag", nil, "Context tag (repeatable)")
	learnFailureCmd.Flags().StringArrayVar(&learnTags, "tag", nil, "Context tag (repeatable)")

	learnCorrectCmd.Flags().BoolVar(&correctValid, "valid", false, "Whether the finding was valid")
	learnCorrectCmd.Flags().StringVar(&correctReason, "reason", "", "Why the finding was confirmed or refuted")
	learnCorrectCmd.Flags().StringVar(&correctUser, "user", "", "Who supplied the correction")

	learnCmd.AddCommand(learnSuccessCmd)
	learnCmd.AddCommand(learnFailureCmd)
	learnCmd.AddCommand(learnCorrectCmd)
	rootCmd.AddCommand(learnCmd)
}

func runLearnOutcome(success bool) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		sig := mustSignatureFromFlags()

		logger := newLogger(learnFormat)
		repoRoot := mustGetRepoRoot()
		cfg := loadConfig(repoRoot, logger)
		store, closer := openStore(repoRoot, cfg, logger)
		defer closer()

		var err error
		if success {
			err = store.RecordSuccess(sig, learnConfidence, learnTags)
		} else {
			err = store.RecordFailure(sig, learnConfidence, learnTags)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recording outcome: %v\n", err)
			os.Exit(1)
		}

		rec, _ := store.Lookup(sig)
		printJSON(map[string]interface{}{
			"patternId": sig.PatternID(),
			"record":    rec,
		})
	}
}

func runLearnCorrect(cmd *cobra.Command, args []string) {
	sig := mustSignatureFromFlags()

	logger := newLogger(learnFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	if err := store.LearnFromCorrection(sig, correctValid, learnConfidence, correctReason, correctUser); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording correction: %v\n", err)
		os.Exit(1)
	}

	rec, ok := store.Lookup(sig)
	printJSON(map[string]interface{}{
		"patternId": sig.PatternID(),
		"known":     ok,
		"record":    rec,
	})
}
