package confidence

import (
	"fmt"
	"math"
	"strings"
)

// Factor weights. Pattern-match strength dominates; historical accuracy is
// a light correction on top of the structural signals.
const (
	weightPattern    = 0.4
	weightContext    = 0.3
	weightStructure  = 0.2
	weightHistorical = 0.1
)

// DefaultHistoricalAccuracy is used when the caller omits the historical
// factor: unknown but not implausible.
const DefaultHistoricalAccuracy = 75.0

// Level is the human-facing confidence band for a score.
type Level string

const (
	LevelVeryHigh Level = "very-high"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelVeryLow  Level = "very-low"
)

// Factors are the raw inputs to a confidence score, each in [0,100].
// Historical is optional; leave it nil to use the default.
type Factors struct {
	PatternMatch float64  `json:"patternMatch"`
	Context      float64  `json:"context"`
	Structure    float64  `json:"structure"`
	Historical   *float64 `json:"historical,omitempty"`
}

// Breakdown records the factor values that actually entered the score.
type Breakdown struct {
	PatternMatch float64 `json:"patternMatch"`
	Context      float64 `json:"context"`
	Structure    float64 `json:"structure"`
	Historical   float64 `json:"historical"`
}

// Result is a scored finding with its audit trail.
type Result struct {
	Score       float64   `json:"score"`
	Level       Level     `json:"level"`
	Breakdown   Breakdown `json:"breakdown"`
	Explanation string    `json:"explanation"`
}

// Calculate produces a weighted confidence score from the four factors.
// It is stateless and safe for concurrent use.
func Calculate(f Factors) Result {
	historical := DefaultHistoricalAccuracy
	if f.Historical != nil {
		historical = clamp(*f.Historical)
	}

	b := Breakdown{
		PatternMatch: clamp(f.PatternMatch),
		Context:      clamp(f.Context),
		Structure:    clamp(f.Structure),
		Historical:   historical,
	}

	score := weightPattern*b.PatternMatch +
		weightContext*b.Context +
		weightStructure*b.Structure +
		weightHistorical*b.Historical
	score = clamp(math.Round(score))

	return Result{
		Score:       score,
		Level:       GetLevel(score),
		Breakdown:   b,
		Explanation: explain(b),
	}
}

// GetLevel returns the confidence level band for a score.
func GetLevel(score float64) Level {
	switch {
	case score >= 90:
		return LevelVeryHigh
	case score >= 75:
		return LevelHigh
	case score >= 50:
		return LevelMedium
	case score >= 30:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// explain assembles a sentence describing each factor's band, so a reader
// can audit why a finding received its score.
func explain(b Breakdown) string {
	parts := []string{
		patternBand(b.PatternMatch),
		contextBand(b.Context),
		structureBand(b.Structure),
		historicalBand(b.Historical),
	}
	return strings.Join(parts, "; ") + "."
}

func patternBand(v float64) string {
	switch {
	case v >= 90:
		return "exact pattern match"
	case v >= 70:
		return "strong pattern match"
	case v >= 50:
		return "moderate pattern match"
	default:
		return "weak pattern match"
	}
}

func contextBand(v float64) string {
	switch {
	case v >= 90:
		return "context fits exactly"
	case v >= 70:
		return "context fits well"
	case v >= 50:
		return "context partially fits"
	default:
		return "context fit is poor"
	}
}

func structureBand(v float64) string {
	switch {
	case v >= 90:
		return "code structure strongly supports the finding"
	case v >= 70:
		return "code structure supports the finding"
	case v >= 50:
		return "code structure is equivocal"
	default:
		return "code structure weakens the finding"
	}
}

func historicalBand(v float64) string {
	switch {
	case v >= 90:
		return fmt.Sprintf("historically very reliable (%.0f%%)", v)
	case v >= 70:
		return fmt.Sprintf("historically reliable (%.0f%%)", v)
	case v >= 50:
		return fmt.Sprintf("mixed historical record (%.0f%%)", v)
	default:
		return fmt.Sprintf("historically unreliable (%.0f%%)", v)
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
