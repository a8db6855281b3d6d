package patterns

import (
	"sort"
	"strings"
)

// SortField selects the ordering of query results.
type SortField string

const (
	// SortBySuccessRate orders by success rate, highest first
	SortBySuccessRate SortField = "successRate"
	// SortByDetectionCount orders by detection count, highest first
	SortByDetectionCount SortField = "detectionCount"
	// SortByAvgConfidence orders by average confidence, highest first
	SortByAvgConfidence SortField = "avgConfidence"
	// SortByLastSeen orders by last sighting, most recent first
	SortByLastSeen SortField = "lastSeen"
)

// Query filters and orders learned patterns. Zero values disable a filter;
// MaxFalsePositiveRate uses a pointer because 0 is a meaningful bound.
type Query struct {
	Detector             string
	Kind                 string
	PathContains         string
	ContextTag           string
	MinSuccessRate       float64
	MaxFalsePositiveRate *float64
	ActiveOnly           bool
	SortBy               SortField
	Limit                int
}

// Query returns the records matching the filter, ordered and limited.
func (s *Store) Query(q Query) []*Record {
	s.ensureLoaded()

	results := make([]*Record, 0)
	for _, rec := range s.snap.Patterns {
		if !matches(rec, q) {
			continue
		}
		results = append(results, rec)
	}

	sortRecords(results, q.SortBy)

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	return results
}

func matches(rec *Record, q Query) bool {
	if q.Detector != "" && rec.Signature.Detector != q.Detector {
		return false
	}
	if q.Kind != "" && rec.Signature.Kind != q.Kind {
		return false
	}
	if q.PathContains != "" && !strings.Contains(rec.Signature.Location.FilePath, q.PathContains) {
		return false
	}
	if q.ContextTag != "" && !rec.hasTag(q.ContextTag) {
		return false
	}
	if q.MinSuccessRate > 0 && rec.Performance.SuccessRate < q.MinSuccessRate {
		return false
	}
	if q.MaxFalsePositiveRate != nil && rec.Performance.FalsePositiveRate > *q.MaxFalsePositiveRate {
		return false
	}
	if q.ActiveOnly && !rec.Lifecycle.Active {
		return false
	}
	return true
}

func sortRecords(records []*Record, field SortField) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch field {
		case SortByDetectionCount:
			if a.Performance.DetectionCount != b.Performance.DetectionCount {
				return a.Performance.DetectionCount > b.Performance.DetectionCount
			}
		case SortByAvgConfidence:
			if a.Performance.AvgConfidence != b.Performance.AvgConfidence {
				return a.Performance.AvgConfidence > b.Performance.AvgConfidence
			}
		case SortByLastSeen:
			if !a.Lifecycle.LastSeen.Equal(b.Lifecycle.LastSeen) {
				return a.Lifecycle.LastSeen.After(b.Lifecycle.LastSeen)
			}
		default: // SortBySuccessRate
			if a.Performance.SuccessRate != b.Performance.SuccessRate {
				return a.Performance.SuccessRate > b.Performance.SuccessRate
			}
		}
		return a.ID < b.ID
	})
}
