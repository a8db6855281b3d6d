package patterns

import (
	"time"

	"github.com/google/uuid"
)

// Performance holds the running counters for one learned pattern.
// SuccessRate and FalsePositiveRate are recomputed after every mutation.
type Performance struct {
	DetectionCount       int     `json:"detectionCount"`
	SuccessCount         int     `json:"successCount"`
	FailureCount         int     `json:"failureCount"`
	AvgConfidence        float64 `json:"avgConfidence"`
	AvgSuccessConfidence float64 `json:"avgSuccessConfidence"`
	AvgFailureConfidence float64 `json:"avgFailureConfidence"`
	SuccessRate          float64 `json:"successRate"`
	FalsePositiveRate    float64 `json:"falsePositiveRate"`
}

// Correction is one piece of explicit human feedback on a pattern.
type Correction struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	IsValid    bool      `json:"isValid"`
	Reason     string    `json:"reason,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Confidence float64   `json:"confidence"`
}

// Lifecycle tracks a pattern's state: Created (active, not skipped) ->
// AutoSkipped (active, skipped; still updated, findings suppressed) ->
// Deprecated (inactive) -> hard-deleted by cleanup.
type Lifecycle struct {
	Active        bool      `json:"active"`
	SkipInFuture  bool      `json:"skipInFuture"`
	FirstDetected time.Time `json:"firstDetected"`
	LastSeen      time.Time `json:"lastSeen"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Record is the identity plus historical performance of one pattern.
type Record struct {
	ID          string       `json:"id"`
	Signature   Signature    `json:"signature"`
	Performance Performance  `json:"performance"`
	Corrections []Correction `json:"corrections,omitempty"`
	Lifecycle   Lifecycle    `json:"lifecycle"`

	// Tags accumulates the context tags seen on detections, kept only for
	// reporting and querying
	Tags []string `json:"tags,omitempty"`
}

// newRecord creates the record for a signature's first detection.
func newRecord(sig Signature, now time.Time) *Record {
	return &Record{
		ID:        sig.PatternID(),
		Signature: sig,
		Lifecycle: Lifecycle{
			Active:        true,
			FirstDetected: now,
			LastSeen:      now,
			LastUpdated:   now,
		},
	}
}

// applyOutcome records one success or failure with the confidence the
// finding carried, updating counters with the incremental-mean formula
// avg' = (avg*(n-1) + x) / n and recomputing both rates.
func (r *Record) applyOutcome(success bool, confidence float64, now time.Time) {
	p := &r.Performance
	p.DetectionCount++
	p.AvgConfidence = incrementalMean(p.AvgConfidence, confidence, p.DetectionCount)

	if success {
		p.SuccessCount++
		p.AvgSuccessConfidence = incrementalMean(p.AvgSuccessConfidence, confidence, p.SuccessCount)
	} else {
		p.FailureCount++
		p.AvgFailureConfidence = incrementalMean(p.AvgFailureConfidence, confidence, p.FailureCount)
	}

	p.recomputeRates()

	r.Lifecycle.LastSeen = now
	r.Lifecycle.LastUpdated = now
}

// addCorrection appends explicit human feedback and counts it exactly like
// the automatic outcome paths do.
func (r *Record) addCorrection(isValid bool, confidence float64, reason, userID string, now time.Time) {
	r.Corrections = append(r.Corrections, Correction{
		ID:         uuid.NewString(),
		Timestamp:  now,
		IsValid:    isValid,
		Reason:     reason,
		UserID:     userID,
		Confidence: confidence,
	})
	r.applyOutcome(isValid, confidence, now)
}

// addTags merges context tags into the record, preserving first-seen order.
func (r *Record) addTags(tags []string) {
	for _, tag := range tags {
		if tag == "" || r.hasTag(tag) {
			continue
		}
		r.Tags = append(r.Tags, tag)
	}
}

func (r *Record) hasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p *Performance) recomputeRates() {
	if p.DetectionCount == 0 {
		p.SuccessRate = 0
		p.FalsePositiveRate = 0
		return
	}
	p.SuccessRate = float64(p.SuccessCount) / float64(p.DetectionCount)
	p.FalsePositiveRate = float64(p.FailureCount) / float64(p.DetectionCount)
}

func incrementalMean(avg, x float64, n int) float64 {
	return (avg*float64(n-1) + x) / float64(n)
}
