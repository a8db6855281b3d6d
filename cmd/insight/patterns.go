package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"insight/internal/patterns"
)

var (
	patternsFormat string
	// list subcommand flags
	listDetector   string
	listKind       string
	listPath       string
	listTag        string
	listMinSuccess float64
	listMaxFPRate  float64
	listActiveOnly bool
	listSortBy     string
	listLimit      int
	// skip/deprecate identity flags
	sigCategory string
	sigDetector string
	sigKind     string
	sigFile     string
	sigLine     int
	skipOff     bool
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and manage the learned pattern store",
	Long: `Inspect and manage the learned pattern store.

The store records how often each detected pattern turned out to be
correct and uses that history to adjust future confidence scores.`,
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned patterns",
	Long: `List learned patterns, filtered and sorted.

Examples:
  insight patterns list --detector=db-analyzer
  insight patterns list --min-success-rate=0.9 --sort=detectionCount
  insight patterns list --active-only --limit=20`,
	Run: runPatternsList,
}

var patternsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show global and per-detector learning statistics",
	Run:   runPatternsStats,
}

var patternsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Hard-delete deprecated patterns past the retention horizon",
	Run:   runPatternsCleanup,
}

var patternsBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a compressed backup of the learned state",
	Run:   runPatternsBackup,
}

var patternsRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Replace the learned state with a compressed backup",
	Long: `Replace the learned state with a previously written backup.

The current state is overwritten, in memory and on disk.

Example:
  insight patterns restore .insight/backups/patterns-20260826T120000Z.json.zst`,
	Args: cobra.ExactArgs(1),
	Run:  runPatternsRestore,
}

var patternsSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Quarantine or un-quarantine a pattern",
	Long: `Quarantine a pattern so its findings score 0, or lift an existing
quarantine with --off. This is the only way to un-skip a pattern that
was quarantined automatically.

Examples:
  insight patterns skip --category=database --detector=db-analyzer \
      --kind=missing-index --file=internal/db/users.go --line=42
  insight patterns skip --off --category=database --detector=db-analyzer \
      --kind=missing-index --file=internal/db/users.go --line=42`,
	Run: runPatternsSkip,
}

var patternsDeprecateCmd = &cobra.Command{
	Use:   "deprecate",
	Short: "Soft-delete a pattern",
	Run:   runPatternsDeprecate,
}

func init() {
	patternsCmd.PersistentFlags().StringVar(&patternsFormat, "format", "json", "Output format (json, human)")

	patternsListCmd.Flags().StringVar(&listDetector, "detector", "", "Filter by detector id")
	patternsListCmd.Flags().StringVar(&listKind, "kind", "", "Filter by pattern kind")
	patternsListCmd.Flags().StringVar(&listPath, "path", "", "Filter by file-path substring")
	patternsListCmd.Flags().StringVar(&listTag, "tag", "", "Filter by context tag")
	patternsListCmd.Flags().Float64Var(&listMinSuccess, "min-success-rate", 0, "Minimum success rate (0..1)")
	patternsListCmd.Flags().Float64Var(&listMaxFPRate, "max-fp-rate", -1, "Maximum false-positive rate (0..1)")
	patternsListCmd.Flags().BoolVar(&listActiveOnly, "active-only", false, "Exclude deprecated patterns")
	patternsListCmd.Flags().StringVar(&listSortBy, "sort", "successRate", "Sort field (successRate, detectionCount, avgConfidence, lastSeen)")
	patternsListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum results (0 = unlimited)")

	for _, cmd := range []*cobra.Command{patternsSkipCmd, patternsDeprecateCmd} {
		cmd.Flags().StringVar(&sigCategory, "category", "", "Pattern category")
		cmd.Flags().StringVar(&sigDetector, "detector", "", "Detector id")
		cmd.Flags().StringVar(&sigKind, "kind", "", "Pattern kind")
		cmd.Flags().StringVar(&sigFile, "file", "", "File path")
		cmd.Flags().IntVar(&sigLine, "line", 0, "Line number")
	}
	patternsSkipCmd.Flags().BoolVar(&skipOff, "off", false, "Lift the quarantine instead of setting it")

	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsStatsCmd)
	patternsCmd.AddCommand(patternsCleanupCmd)
	patternsCmd.AddCommand(patternsBackupCmd)
	patternsCmd.AddCommand(patternsRestoreCmd)
	patternsCmd.AddCommand(patternsSkipCmd)
	patternsCmd.AddCommand(patternsDeprecateCmd)
	rootCmd.AddCommand(patternsCmd)
}

func runPatternsList(cmd *cobra.Command, args []string) {
	logger := newLogger(patternsFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	q := patterns.Query{
		Detector:       listDetector,
		Kind:           listKind,
		PathContains:   listPath,
		ContextTag:     listTag,
		MinSuccessRate: listMinSuccess,
		ActiveOnly:     listActiveOnly,
		SortBy:         patterns.SortField(listSortBy),
		Limit:          listLimit,
	}
	if listMaxFPRate >= 0 {
		q.MaxFalsePositiveRate = &listMaxFPRate
	}

	results := store.Query(q)

	if patternsFormat == "human" {
		fmt.Printf("%-16s %-24s %-10s %-8s %-8s %s\n", "DETECTOR", "KIND", "DETECTED", "SUCCESS", "FP-RATE", "LOCATION")
		for _, rec := range results {
			fmt.Printf("%-16s %-24s %-10d %-8.2f %-8.2f %s:%d\n",
				rec.Signature.Detector,
				rec.Signature.Kind,
				rec.Performance.DetectionCount,
				rec.Performance.SuccessRate,
				rec.Performance.FalsePositiveRate,
				rec.Signature.Location.FilePath,
				rec.Signature.Location.Line,
			)
		}
		return
	}

	printJSON(map[string]interface{}{
		"patterns": results,
		"count":    len(results),
	})
}

func runPatternsStats(cmd *cobra.Command, args []string) {
	logger := newLogger(patternsFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	snap, err := store.Snapshot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading store: %v\n", err)
		os.Exit(1)
	}

	printJSON(map[string]interface{}{
		"global":    snap.GlobalStats,
		"detectors": snap.DetectorStats,
	})
}

func runPatternsCleanup(cmd *cobra.Command, args []string) {
	logger := newLogger(patternsFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	removed := store.CleanupDeprecated(time.Now().UTC())
	printJSON(map[string]interface{}{
		"removed": removed,
	})
}

func runPatternsBackup(cmd *cobra.Command, args []string) {
	logger := newLogger(patternsFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	path, err := store.Backup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing backup: %v\n", err)
		os.Exit(1)
	}

	printJSON(map[string]interface{}{
		"backup": path,
	})
}

func runPatternsRestore(cmd *cobra.Command, args []string) {
	snap, err := patterns.LoadBackup(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading backup: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(patternsFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	if err := store.Restore(snap); err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring backup: %v\n", err)
		os.Exit(1)
	}

	printJSON(map[string]interface{}{
		"restored": args[0],
		"patterns": len(snap.Patterns),
	})
}

func runPatternsSkip(cmd *cobra.Command, args []string) {
	sig := mustSignatureFromFlags()

	logger := newLogger(patternsFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	if err := store.SetSkip(sig, !skipOff); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating pattern: %v\n", err)
		os.Exit(1)
	}

	printJSON(map[string]interface{}{
		"patternId": sig.PatternID(),
		"skip":      !skipOff,
	})
}

func runPatternsDeprecate(cmd *cobra.Command, args []string) {
	sig := mustSignatureFromFlags()

	logger := newLogger(patternsFormat)
	repoRoot := mustGetRepoRoot()
	cfg := loadConfig(repoRoot, logger)
	store, closer := openStore(repoRoot, cfg, logger)
	defer closer()

	if err := store.Deprecate(sig); err != nil {
		fmt.Fprintf(os.Stderr, "Error deprecating pattern: %v\n", err)
		os.Exit(1)
	}

	printJSON(map[string]interface{}{
		"patternId":  sig.PatternID(),
		"deprecated": true,
	})
}

func mustSignatureFromFlags() patterns.Signature {
	sig := patterns.Signature{
		Category: patterns.Category(sigCategory),
		Detector: sigDetector,
		Kind:     sigKind,
		Location: patterns.Location{FilePath: sigFile, Line: sigLine},
	}
	if err := sig.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return sig
}
