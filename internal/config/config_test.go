package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Learning.MinDetectionsForStability != 10 {
		t.Errorf("MinDetectionsForStability = %d, want 10", cfg.Learning.MinDetectionsForStability)
	}
	if cfg.Learning.DeprecateAfterDays != 90 {
		t.Errorf("DeprecateAfterDays = %d, want 90", cfg.Learning.DeprecateAfterDays)
	}
	if cfg.Learning.AutoSkipThreshold != 0.7 {
		t.Errorf("AutoSkipThreshold = %v, want 0.7", cfg.Learning.AutoSkipThreshold)
	}
	if cfg.Learning.ConfidenceBoost != 0.15 {
		t.Errorf("ConfidenceBoost = %v, want 0.15", cfg.Learning.ConfidenceBoost)
	}
	if cfg.Learning.ConfidencePenalty != 0.25 {
		t.Errorf("ConfidencePenalty = %v, want 0.25", cfg.Learning.ConfidencePenalty)
	}
	if cfg.Learning.AutoFixMinConfidence != 85 {
		t.Errorf("AutoFixMinConfidence = %d, want 85", cfg.Learning.AutoFixMinConfidence)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig on empty dir: %v", err)
	}
	if cfg.Learning.MinDetectionsForStability != 10 {
		t.Errorf("missing config should fall back to defaults")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	insightDir := filepath.Join(dir, ".insight")
	if err := os.MkdirAll(insightDir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `{
  "version": 1,
  "learning": {
    "minDetectionsForStability": 5,
    "autoSkipThreshold": 0.6
  }
}`
	if err := os.WriteFile(filepath.Join(insightDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Learning.MinDetectionsForStability != 5 {
		t.Errorf("MinDetectionsForStability = %d, want 5", cfg.Learning.MinDetectionsForStability)
	}
	if cfg.Learning.AutoSkipThreshold != 0.6 {
		t.Errorf("AutoSkipThreshold = %v, want 0.6", cfg.Learning.AutoSkipThreshold)
	}
	// Unset keys keep their defaults
	if cfg.Learning.DeprecateAfterDays != 90 {
		t.Errorf("DeprecateAfterDays = %d, want default 90", cfg.Learning.DeprecateAfterDays)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Learning.MinDetectionsForStability = 7
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Learning.MinDetectionsForStability != 7 {
		t.Errorf("round-trip MinDetectionsForStability = %d, want 7", loaded.Learning.MinDetectionsForStability)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad version", func(c *Config) { c.Version = 2 }, true},
		{"threshold above one", func(c *Config) { c.Learning.AutoSkipThreshold = 1.5 }, true},
		{"negative boost", func(c *Config) { c.Learning.ConfidenceBoost = -0.1 }, true},
		{"penalty above one", func(c *Config) { c.Learning.ConfidencePenalty = 2 }, true},
		{"zero min detections", func(c *Config) { c.Learning.MinDetectionsForStability = 0 }, true},
		{"auto-fix confidence above 100", func(c *Config) { c.Learning.AutoFixMinConfidence = 101 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
