package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"insight/internal/config"
	"insight/internal/logging"
	"insight/internal/patterns"
	"insight/internal/storage"
)

// getRepoRoot returns the repository root directory.
func getRepoRoot() (string, error) {
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// newLogger creates a logger with the specified format.
func newLogger(format string) *logging.Logger {
	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logging.InfoLevel,
	})
}

// loadConfig loads the repo configuration, falling back to defaults. A
// config that loads but fails validation is rejected the same way: a
// silently-accepted bad threshold would disable learning behavior the
// operator relies on.
func loadConfig(repoRoot string, logger *logging.Logger) *config.Config {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("Invalid config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return config.DefaultConfig()
	}
	return cfg
}

// openStore creates the pattern store from config, wiring the SQLite event
// archive when history is enabled. The returned closer releases both.
func openStore(repoRoot string, cfg *config.Config, logger *logging.Logger) (*patterns.Store, func()) {
	statePath := cfg.Learning.StatePath
	if statePath != "" && !filepath.IsAbs(statePath) {
		statePath = filepath.Join(repoRoot, statePath)
	}

	store := patterns.NewStore(patterns.Options{
		Enabled:                   cfg.Learning.Enabled,
		MinDetectionsForStability: cfg.Learning.MinDetectionsForStability,
		DeprecateAfterDays:        cfg.Learning.DeprecateAfterDays,
		AutoSkipThreshold:         cfg.Learning.AutoSkipThreshold,
		ConfidenceBoost:           cfg.Learning.ConfidenceBoost,
		ConfidencePenalty:         cfg.Learning.ConfidencePenalty,
		StatePath:                 statePath,
		BackupCount:               cfg.Learning.BackupCount,
	}, logger)

	closer := func() { store.Close() }

	if cfg.History.Enabled {
		db, err := storage.Open(repoRoot, logger)
		if err != nil {
			logger.Warn("Learning-event archive unavailable", map[string]interface{}{
				"error": err.Error(),
			})
			return store, closer
		}
		store.SetEventRecorder(storage.NewHistoryStore(db))
		closer = func() {
			store.Close()
			db.Close()
		}
	}

	return store, closer
}

// mustOpenHistory opens the event archive or exits.
func mustOpenHistory(repoRoot string, logger *logging.Logger) (*storage.HistoryStore, func()) {
	db, err := storage.Open(repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history archive: %v\n", err)
		os.Exit(1)
	}
	return storage.NewHistoryStore(db), func() { db.Close() }
}

// printJSON writes a value as indented JSON to stdout.
func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
