package confidence

import (
	"strings"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestCalculateExtremes(t *testing.T) {
	r := Calculate(Factors{PatternMatch: 100, Context: 100, Structure: 100, Historical: fptr(100)})
	if r.Score != 100 || r.Level != LevelVeryHigh {
		t.Errorf("all-100 factors: score=%v level=%v", r.Score, r.Level)
	}

	r = Calculate(Factors{PatternMatch: 0, Context: 0, Structure: 0, Historical: fptr(0)})
	if r.Score != 0 || r.Level != LevelVeryLow {
		t.Errorf("all-0 factors: score=%v level=%v", r.Score, r.Level)
	}
}

func TestCalculateWeights(t *testing.T) {
	// 0.4*80 + 0.3*60 + 0.2*40 + 0.1*90 = 32 + 18 + 8 + 9 = 67
	r := Calculate(Factors{PatternMatch: 80, Context: 60, Structure: 40, Historical: fptr(90)})
	if r.Score != 67 {
		t.Errorf("score = %v, want 67", r.Score)
	}
	if r.Level != LevelMedium {
		t.Errorf("level = %v, want medium", r.Level)
	}
}

func TestCalculateDefaultHistorical(t *testing.T) {
	// Omitting historical substitutes 75.
	r := Calculate(Factors{PatternMatch: 100, Context: 100, Structure: 100})
	if r.Breakdown.Historical != 75 {
		t.Errorf("Breakdown.Historical = %v, want 75", r.Breakdown.Historical)
	}
	// 0.4*100 + 0.3*100 + 0.2*100 + 0.1*75 = 97.5 -> 98
	if r.Score != 98 {
		t.Errorf("score = %v, want 98", r.Score)
	}
}

func TestCalculateClampsInputs(t *testing.T) {
	r := Calculate(Factors{PatternMatch: 150, Context: -20, Structure: 50, Historical: fptr(200)})
	if r.Breakdown.PatternMatch != 100 || r.Breakdown.Context != 0 || r.Breakdown.Historical != 100 {
		t.Errorf("breakdown not clamped: %+v", r.Breakdown)
	}
	if r.Score < 0 || r.Score > 100 {
		t.Errorf("score out of range: %v", r.Score)
	}
}

func TestGetLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{100, LevelVeryHigh},
		{90, LevelVeryHigh},
		{89, LevelHigh},
		{75, LevelHigh},
		{74, LevelMedium},
		{50, LevelMedium},
		{49, LevelLow},
		{30, LevelLow},
		{29, LevelVeryLow},
		{0, LevelVeryLow},
	}
	for _, tt := range tests {
		if got := GetLevel(tt.score); got != tt.want {
			t.Errorf("GetLevel(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestExplanationBands(t *testing.T) {
	r := Calculate(Factors{PatternMatch: 95, Context: 72, Structure: 55, Historical: fptr(20)})

	for _, want := range []string{
		"exact pattern match",
		"context fits well",
		"code structure is equivocal",
		"historically unreliable (20%)",
	} {
		if !strings.Contains(r.Explanation, want) {
			t.Errorf("explanation %q missing %q", r.Explanation, want)
		}
	}
}
