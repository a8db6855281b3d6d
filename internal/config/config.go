// Package config loads and validates insight configuration from .insight/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete insight configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Learning LearningConfig `json:"learning" mapstructure:"learning"`
	Graph    GraphConfig    `json:"graph" mapstructure:"graph"`
	History  HistoryConfig  `json:"history" mapstructure:"history"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// LearningConfig controls the adaptive confidence store
type LearningConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// MinDetectionsForStability is the number of detections below which
	// history is considered insufficient evidence
	MinDetectionsForStability int `json:"minDetectionsForStability" mapstructure:"minDetectionsForStability"`

	// DeprecateAfterDays is the horizon after which inactive patterns are hard-deleted
	DeprecateAfterDays int `json:"deprecateAfterDays" mapstructure:"deprecateAfterDays"`

	// AutoSkipThreshold is the false-positive rate above which a stable
	// pattern is quarantined (0..1)
	AutoSkipThreshold float64 `json:"autoSkipThreshold" mapstructure:"autoSkipThreshold"`

	// ConfidenceBoost is applied to consistently correct patterns (0..1)
	ConfidenceBoost float64 `json:"confidenceBoost" mapstructure:"confidenceBoost"`

	// ConfidencePenalty is applied to frequently wrong patterns (0..1)
	ConfidencePenalty float64 `json:"confidencePenalty" mapstructure:"confidencePenalty"`

	EnableAutoFixSuggestions bool `json:"enableAutoFixSuggestions" mapstructure:"enableAutoFixSuggestions"`
	AutoFixMinConfidence     int  `json:"autoFixMinConfidence" mapstructure:"autoFixMinConfidence"`

	// StatePath is the learned-state snapshot path, relative to the repo
	// root unless absolute
	StatePath string `json:"statePath" mapstructure:"statePath"`

	// BackupCount is the number of compressed snapshot backups to retain
	BackupCount int `json:"backupCount" mapstructure:"backupCount"`
}

// GraphConfig guards dependency-graph construction
type GraphConfig struct {
	MaxNodes       int    `json:"maxNodes" mapstructure:"maxNodes"`
	MaxEdges       int    `json:"maxEdges" mapstructure:"maxEdges"`
	LayerRulesPath string `json:"layerRulesPath" mapstructure:"layerRulesPath"`
}

// HistoryConfig controls the learning-event archive
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Learning: LearningConfig{
			Enabled:                   true,
			MinDetectionsForStability: 10,
			DeprecateAfterDays:        90,
			AutoSkipThreshold:         0.7,
			ConfidenceBoost:           0.15,
			ConfidencePenalty:         0.25,
			EnableAutoFixSuggestions:  false,
			AutoFixMinConfidence:      85,
			StatePath:                 ".insight/patterns.json",
			BackupCount:               3,
		},
		Graph: GraphConfig{
			MaxNodes:       50000,
			MaxEdges:       500000,
			LayerRulesPath: ".insight/layers.toml",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .insight/config.json.
// A missing config file yields the defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("repoRoot", def.RepoRoot)
	v.SetDefault("learning.enabled", def.Learning.Enabled)
	v.SetDefault("learning.minDetectionsForStability", def.Learning.MinDetectionsForStability)
	v.SetDefault("learning.deprecateAfterDays", def.Learning.DeprecateAfterDays)
	v.SetDefault("learning.autoSkipThreshold", def.Learning.AutoSkipThreshold)
	v.SetDefault("learning.confidenceBoost", def.Learning.ConfidenceBoost)
	v.SetDefault("learning.confidencePenalty", def.Learning.ConfidencePenalty)
	v.SetDefault("learning.enableAutoFixSuggestions", def.Learning.EnableAutoFixSuggestions)
	v.SetDefault("learning.autoFixMinConfidence", def.Learning.AutoFixMinConfidence)
	v.SetDefault("learning.statePath", def.Learning.StatePath)
	v.SetDefault("learning.backupCount", def.Learning.BackupCount)
	v.SetDefault("graph.maxNodes", def.Graph.MaxNodes)
	v.SetDefault("graph.maxEdges", def.Graph.MaxEdges)
	v.SetDefault("graph.layerRulesPath", def.Graph.LayerRulesPath)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".insight"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .insight/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".insight")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Learning.AutoSkipThreshold < 0 || c.Learning.AutoSkipThreshold > 1 {
		return &ConfigError{Field: "learning.autoSkipThreshold", Message: "must be in [0,1]"}
	}
	if c.Learning.ConfidenceBoost < 0 || c.Learning.ConfidenceBoost > 1 {
		return &ConfigError{Field: "learning.confidenceBoost", Message: "must be in [0,1]"}
	}
	if c.Learning.ConfidencePenalty < 0 || c.Learning.ConfidencePenalty > 1 {
		return &ConfigError{Field: "learning.confidencePenalty", Message: "must be in [0,1]"}
	}
	if c.Learning.MinDetectionsForStability < 1 {
		return &ConfigError{Field: "learning.minDetectionsForStability", Message: "must be >= 1"}
	}
	if c.Learning.AutoFixMinConfidence < 0 || c.Learning.AutoFixMinConfidence > 100 {
		return &ConfigError{Field: "learning.autoFixMinConfidence", Message: "must be in [0,100]"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
