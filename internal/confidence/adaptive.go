package confidence

import (
	"fmt"

	"insight/internal/logging"
	"insight/internal/patterns"
)

// Engine scores findings with the weighted calculator and calibrates the
// result against the pattern store's learned history. The store is an
// enhancement: a nil or unavailable store degrades the engine to the
// unmodified base score, never to a failure.
type Engine struct {
	store    *patterns.Store
	defaults *FamilyDefaults
	logger   *logging.Logger

	autoFixEnabled       bool
	autoFixMinConfidence float64
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Store supplies learned history. Nil disables adaptation.
	Store *patterns.Store
	// Defaults supplies per-family historical accuracy for unlearned
	// signatures. Nil uses the built-ins.
	Defaults *FamilyDefaults
	Logger   *logging.Logger

	EnableAutoFixSuggestions bool
	AutoFixMinConfidence     float64
}

// NewEngine creates an adaptive confidence engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Defaults == nil {
		opts.Defaults = NewFamilyDefaults()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscardLogger()
	}
	return &Engine{
		store:                opts.Store,
		defaults:             opts.Defaults,
		logger:               opts.Logger,
		autoFixEnabled:       opts.EnableAutoFixSuggestions,
		autoFixMinConfidence: opts.AutoFixMinConfidence,
	}
}

// Score computes the history-adjusted confidence for a finding. When the
// caller omits the historical factor, it is filled from the signature's
// learned success rate, or from the detector-family default if the
// signature has never been seen.
func (e *Engine) Score(f Factors, sig patterns.Signature) Result {
	if f.Historical == nil {
		historical := e.historicalAccuracy(sig)
		f.Historical = &historical
	}

	base := Calculate(f)
	if e.store == nil {
		return base
	}

	adjusted := e.store.AdjustConfidence(sig, base.Score)
	if adjusted == base.Score {
		return base
	}

	result := base
	result.Score = adjusted
	result.Level = GetLevel(adjusted)
	result.Explanation = fmt.Sprintf(
		"%s Adjusted %+.0f from learned history (%.0f%% accuracy over %d detections).",
		base.Explanation,
		adjusted-base.Score,
		result.Breakdown.Historical,
		e.detectionCount(sig),
	)

	e.logger.Debug("Confidence adjusted from history", map[string]interface{}{
		"patternId": sig.PatternID(),
		"detector":  sig.Detector,
		"base":      base.Score,
		"adjusted":  adjusted,
	})

	return result
}

// AutoFixEligible reports whether a scored finding may carry an automatic
// fix suggestion.
func (e *Engine) AutoFixEligible(r Result) bool {
	return e.autoFixEnabled && r.Score >= e.autoFixMinConfidence
}

// historicalAccuracy is the signature's learned success rate as a 0-100
// score, or the detector-family default when there is no record.
func (e *Engine) historicalAccuracy(sig patterns.Signature) float64 {
	if e.store != nil {
		if rec, ok := e.store.Lookup(sig); ok && rec.Performance.DetectionCount > 0 {
			return rec.Performance.SuccessRate * 100
		}
	}
	return e.defaults.For(string(sig.Category))
}

func (e *Engine) detectionCount(sig patterns.Signature) int {
	if e.store == nil {
		return 0
	}
	if rec, ok := e.store.Lookup(sig); ok {
		return rec.Performance.DetectionCount
	}
	return 0
}
