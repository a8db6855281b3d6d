// Package patterns maintains the persisted, self-tuning record of how
// trustworthy each kind of heuristic finding has historically been.
package patterns

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Category is the closed set of finding categories the core tracks.
type Category string

const (
	// CategorySecurity covers injection, secrets, and unsafe-call findings
	CategorySecurity Category = "security"
	// CategoryPerformance covers hot-loop and allocation findings
	CategoryPerformance Category = "performance"
	// CategoryDatabase covers query and schema findings
	CategoryDatabase Category = "database"
	// CategoryDependency covers dependency-freshness and version findings
	CategoryDependency Category = "dependency"
	// CategoryBuild covers build-output and compiler-diagnostic findings
	CategoryBuild Category = "build"
	// CategoryStructure covers dependency-graph structural findings
	CategoryStructure Category = "structure"
)

// Valid reports whether the category is one of the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategorySecurity, CategoryPerformance, CategoryDatabase,
		CategoryDependency, CategoryBuild, CategoryStructure:
		return true
	}
	return false
}

// Location pins a finding to a source position.
type Location struct {
	FilePath string `json:"filePath"`
	Line     int    `json:"line"`
}

// Signature is the deterministic identity of one recurring kind of finding
// at one location. Equality key is (Detector, Kind, Location); Category is
// the closed classification tag carried alongside.
type Signature struct {
	Category Category `json:"category"`
	Detector string   `json:"detector"`
	Kind     string   `json:"kind"`
	Location Location `json:"location"`
}

// PatternID computes the stable hash identifying this signature across
// process runs. Two detections with identical signature fields are the same
// learned pattern.
func (s Signature) PatternID() string {
	parts := []string{
		"detector:" + s.Detector,
		"kind:" + s.Kind,
		"file:" + s.Location.FilePath,
		fmt.Sprintf("line:%d", s.Location.Line),
	}
	canonical := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}

// Validate rejects signatures that cannot identify a pattern.
func (s Signature) Validate() error {
	if s.Detector == "" {
		return fmt.Errorf("signature has empty detector id")
	}
	if s.Kind == "" {
		return fmt.Errorf("signature has empty pattern kind")
	}
	if s.Category != "" && !s.Category.Valid() {
		return fmt.Errorf("unknown finding category %q", s.Category)
	}
	return nil
}
