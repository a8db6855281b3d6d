package patterns

import (
	"time"
)

// recomputeStats rebuilds global and per-detector aggregates from every
// record. O(total patterns) per mutation, a deliberate simplicity-over-
// throughput choice at the expected scale of hundreds to low thousands of
// patterns.
func (s *Store) recomputeStats(now time.Time) {
	global := GlobalStats{}
	detectorStats := make(map[string]DetectorStats)

	type detectorAcc struct {
		patterns           int
		detections         int
		successes          int
		failures           int
		weightedConfidence float64
	}
	perDetector := make(map[string]*detectorAcc)

	var weightedConfidence float64

	for _, rec := range s.snap.Patterns {
		p := rec.Performance
		global.PatternCount++
		if rec.Lifecycle.Active {
			global.ActivePatterns++
		}
		if rec.Lifecycle.SkipInFuture {
			global.SkippedPatterns++
		}
		global.TotalDetections += p.DetectionCount
		global.TotalSuccesses += p.SuccessCount
		global.TotalFailures += p.FailureCount
		weightedConfidence += p.AvgConfidence * float64(p.DetectionCount)

		acc := perDetector[rec.Signature.Detector]
		if acc == nil {
			acc = &detectorAcc{}
			perDetector[rec.Signature.Detector] = acc
		}
		acc.patterns++
		acc.detections += p.DetectionCount
		acc.successes += p.SuccessCount
		acc.failures += p.FailureCount
		acc.weightedConfidence += p.AvgConfidence * float64(p.DetectionCount)
	}

	if global.TotalDetections > 0 {
		global.OverallSuccessRate = float64(global.TotalSuccesses) / float64(global.TotalDetections)
		global.AvgConfidence = weightedConfidence / float64(global.TotalDetections)
	}

	for detector, acc := range perDetector {
		ds := DetectorStats{PatternCount: acc.patterns}
		if acc.detections > 0 {
			ds.SuccessRate = float64(acc.successes) / float64(acc.detections)
			ds.FalsePositiveRate = float64(acc.failures) / float64(acc.detections)
			ds.AvgConfidence = acc.weightedConfidence / float64(acc.detections)
		}
		detectorStats[detector] = ds
	}

	s.snap.GlobalStats = global
	s.snap.DetectorStats = detectorStats
	s.snap.LastUpdated = now
}
