package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"insight/internal/errors"
	"insight/internal/logging"
)

// SnapshotVersion is the persisted-state schema version. The snapshot
// layout is the compatibility contract with earlier runs.
const SnapshotVersion = "1.0.0"

// Options configures a Store. Zero StatePath keeps the store in memory
// only, which tests and degraded callers rely on.
type Options struct {
	Enabled                   bool
	MinDetectionsForStability int
	DeprecateAfterDays        int
	AutoSkipThreshold         float64
	ConfidenceBoost           float64
	ConfidencePenalty         float64
	StatePath                 string
	BackupCount               int
}

// DefaultOptions returns the standard learning options.
func DefaultOptions() Options {
	return Options{
		Enabled:                   true,
		MinDetectionsForStability: 10,
		DeprecateAfterDays:        90,
		AutoSkipThreshold:         0.7,
		ConfidenceBoost:           0.15,
		ConfidencePenalty:         0.25,
		BackupCount:               3,
	}
}

// Event is one learning mutation, handed to the optional archive recorder.
type Event struct {
	PatternID  string    `json:"patternId"`
	Detector   string    `json:"detector"`
	Kind       string    `json:"kind"`
	Type       string    `json:"type"` // "success" | "failure" | "correction"
	Confidence float64   `json:"confidence"`
	IsValid    bool      `json:"isValid"`
	Reason     string    `json:"reason,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	At         time.Time `json:"at"`
}

// EventRecorder archives learning events. Recorder failures are absorbed;
// the archive is an enhancement, never a dependency.
type EventRecorder interface {
	RecordEvent(ev Event) error
}

// GlobalStats aggregates the whole store.
type GlobalStats struct {
	PatternCount       int     `json:"patternCount"`
	ActivePatterns     int     `json:"activePatterns"`
	SkippedPatterns    int     `json:"skippedPatterns"`
	TotalDetections    int     `json:"totalDetections"`
	TotalSuccesses     int     `json:"totalSuccesses"`
	TotalFailures      int     `json:"totalFailures"`
	OverallSuccessRate float64 `json:"overallSuccessRate"`
	AvgConfidence      float64 `json:"avgConfidence"`
}

// DetectorStats aggregates one detector's patterns.
type DetectorStats struct {
	PatternCount      int     `json:"patternCount"`
	SuccessRate       float64 `json:"successRate"`
	FalsePositiveRate float64 `json:"falsePositiveRate"`
	AvgConfidence     float64 `json:"avgConfidence"`
}

// Snapshot is the persisted document.
type Snapshot struct {
	Version       string                   `json:"version"`
	Created       time.Time                `json:"created"`
	LastUpdated   time.Time                `json:"lastUpdated"`
	Patterns      map[string]*Record       `json:"patterns"`
	GlobalStats   GlobalStats              `json:"globalStats"`
	DetectorStats map[string]DetectorStats `json:"detectorStats"`
}

func newSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Version:       SnapshotVersion,
		Created:       now,
		LastUpdated:   now,
		Patterns:      make(map[string]*Record),
		DetectorStats: make(map[string]DetectorStats),
	}
}

// Store is the process-local pattern store: lazily loaded once, cached in
// memory, persisted write-through after every mutation. Construct one
// explicitly and pass it by reference; there is no package singleton.
// Concurrent processes sharing one state file can lose updates; there is
// no file locking.
type Store struct {
	opts     Options
	logger   *logging.Logger
	recorder EventRecorder

	loaded bool
	snap   *Snapshot
}

// NewStore creates a pattern store. A nil logger discards output.
func NewStore(opts Options, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if opts.MinDetectionsForStability < 1 {
		opts.MinDetectionsForStability = DefaultOptions().MinDetectionsForStability
	}
	return &Store{
		opts:   opts,
		logger: logger,
	}
}

// SetEventRecorder attaches a learning-event archive.
func (s *Store) SetEventRecorder(r EventRecorder) {
	s.recorder = r
}

// ensureLoaded loads the snapshot from disk once. Unreadable or corrupt
// state degrades to an empty store and is never fatal.
func (s *Store) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true
	now := time.Now().UTC()
	s.snap = newSnapshot(now)

	if s.opts.StatePath == "" {
		return
	}

	data, err := os.ReadFile(s.opts.StatePath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read learned state, starting empty", map[string]interface{}{
				"path":  s.opts.StatePath,
				"code":  string(errors.StateCorrupt),
				"error": err.Error(),
			})
		}
		return
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Learned state is corrupt, starting empty", map[string]interface{}{
			"path":  s.opts.StatePath,
			"code":  string(errors.StateCorrupt),
			"error": err.Error(),
		})
		return
	}
	if snap.Patterns == nil {
		snap.Patterns = make(map[string]*Record)
	}
	if snap.DetectorStats == nil {
		snap.DetectorStats = make(map[string]DetectorStats)
	}
	s.snap = &snap
}

// persist writes the full snapshot immediately. The store is small enough
// that per-call persistence keeps the on-disk state fresh across a crash.
// Save failures are absorbed: worst case is stale learning, never an
// aborted analysis.
func (s *Store) persist() {
	if s.opts.StatePath == "" {
		return
	}

	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal learned state", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.opts.StatePath), 0755); err != nil {
		s.logger.Error("Failed to create state directory", map[string]interface{}{
			"path":  s.opts.StatePath,
			"error": err.Error(),
		})
		return
	}

	if err := os.WriteFile(s.opts.StatePath, data, 0644); err != nil {
		s.logger.Error("Failed to persist learned state", map[string]interface{}{
			"path":  s.opts.StatePath,
			"error": err.Error(),
		})
	}
}

// upsert returns the record for a signature, creating it on first detection.
func (s *Store) upsert(sig Signature, now time.Time) *Record {
	id := sig.PatternID()
	if rec, ok := s.snap.Patterns[id]; ok {
		return rec
	}
	rec := newRecord(sig, now)
	s.snap.Patterns[id] = rec
	return rec
}

// RecordSuccess records a confirmed-correct detection for a signature.
func (s *Store) RecordSuccess(sig Signature, confidence float64, tags []string) error {
	return s.recordOutcome(sig, true, confidence, tags)
}

// RecordFailure records a false-positive detection for a signature.
// Chronically wrong patterns are quarantined here automatically: once the
// record is stable and its false-positive rate exceeds the auto-skip
// threshold, skipInFuture is set without operator action.
func (s *Store) RecordFailure(sig Signature, confidence float64, tags []string) error {
	return s.recordOutcome(sig, false, confidence, tags)
}

func (s *Store) recordOutcome(sig Signature, success bool, confidence float64, tags []string) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	if !s.opts.Enabled {
		return nil
	}
	s.ensureLoaded()

	now := time.Now().UTC()
	rec := s.upsert(sig, now)
	rec.applyOutcome(success, confidence, now)
	rec.addTags(tags)

	if !success &&
		!rec.Lifecycle.SkipInFuture &&
		rec.Performance.FalsePositiveRate > s.opts.AutoSkipThreshold &&
		rec.Performance.DetectionCount >= s.opts.MinDetectionsForStability {
		rec.Lifecycle.SkipInFuture = true
		s.logger.Info("Pattern auto-quarantined", map[string]interface{}{
			"patternId":         rec.ID,
			"detector":          sig.Detector,
			"falsePositiveRate": rec.Performance.FalsePositiveRate,
			"detections":        rec.Performance.DetectionCount,
		})
	}

	s.recomputeStats(now)
	s.persist()

	eventType := "failure"
	if success {
		eventType = "success"
	}
	s.archive(Event{
		PatternID:  rec.ID,
		Detector:   sig.Detector,
		Kind:       sig.Kind,
		Type:       eventType,
		Confidence: confidence,
		IsValid:    success,
		At:         now,
	})

	return nil
}

// LearnFromCorrection applies explicit human feedback. A correction for an
// unknown signature is logged and ignored; callers never branch on it.
func (s *Store) LearnFromCorrection(sig Signature, isValid bool, confidence float64, reason, userID string) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	if !s.opts.Enabled {
		return nil
	}
	s.ensureLoaded()

	id := sig.PatternID()
	rec, ok := s.snap.Patterns[id]
	if !ok {
		s.logger.Warn("Correction for unknown pattern ignored", map[string]interface{}{
			"patternId": id,
			"detector":  sig.Detector,
			"code":      string(errors.PatternNotFound),
		})
		return nil
	}

	now := time.Now().UTC()
	rec.addCorrection(isValid, confidence, reason, userID, now)

	s.recomputeStats(now)
	s.persist()

	s.archive(Event{
		PatternID:  rec.ID,
		Detector:   sig.Detector,
		Kind:       sig.Kind,
		Type:       "correction",
		Confidence: confidence,
		IsValid:    isValid,
		Reason:     reason,
		UserID:     userID,
		At:         now,
	})

	return nil
}

// AdjustConfidence turns a base confidence score (0-100) into the
// history-adjusted score for a signature. Three tiers trade responsiveness
// on clear signal against damping in the ambiguous middle band:
// quarantined patterns score 0; thin history passes the base through;
// strong track records get the configured boost, bad ones the penalty;
// everything else drifts by (successRate - 0.75) * 20.
func (s *Store) AdjustConfidence(sig Signature, base float64) float64 {
	if !s.opts.Enabled {
		return clampScore(base)
	}
	s.ensureLoaded()

	rec, ok := s.snap.Patterns[sig.PatternID()]
	if !ok {
		return clampScore(base)
	}

	if rec.Lifecycle.SkipInFuture {
		return 0
	}

	p := rec.Performance
	if p.DetectionCount < s.opts.MinDetectionsForStability {
		return clampScore(base)
	}

	switch {
	case p.SuccessRate >= 0.9 && p.DetectionCount >= 20:
		return clampScore(base + s.opts.ConfidenceBoost*100)
	case p.FalsePositiveRate >= 0.5 && p.DetectionCount >= 10:
		return clampScore(base - s.opts.ConfidencePenalty*100)
	default:
		return clampScore(base + (p.SuccessRate-0.75)*20)
	}
}

// Lookup returns the record for a signature, if any.
func (s *Store) Lookup(sig Signature) (*Record, bool) {
	s.ensureLoaded()
	rec, ok := s.snap.Patterns[sig.PatternID()]
	return rec, ok
}

// SetSkip flips the quarantine flag explicitly. This is the only un-skip
// path; there is no automatic un-skip once a pattern is quarantined.
func (s *Store) SetSkip(sig Signature, skip bool) error {
	s.ensureLoaded()

	rec, ok := s.snap.Patterns[sig.PatternID()]
	if !ok {
		s.logger.Warn("Skip update for unknown pattern ignored", map[string]interface{}{
			"patternId": sig.PatternID(),
			"code":      string(errors.PatternNotFound),
		})
		return nil
	}

	now := time.Now().UTC()
	rec.Lifecycle.SkipInFuture = skip
	rec.Lifecycle.LastUpdated = now
	s.recomputeStats(now)
	s.persist()
	return nil
}

// Deprecate soft-deletes a pattern. It stays on disk until cleanup removes
// it after the configured horizon.
func (s *Store) Deprecate(sig Signature) error {
	s.ensureLoaded()

	rec, ok := s.snap.Patterns[sig.PatternID()]
	if !ok {
		s.logger.Warn("Deprecation of unknown pattern ignored", map[string]interface{}{
			"patternId": sig.PatternID(),
			"code":      string(errors.PatternNotFound),
		})
		return nil
	}

	now := time.Now().UTC()
	rec.Lifecycle.Active = false
	rec.Lifecycle.LastUpdated = now
	s.recomputeStats(now)
	s.persist()
	return nil
}

// CleanupDeprecated hard-deletes inactive records whose last sighting is
// older than the deprecation horizon. Returns the removed count.
func (s *Store) CleanupDeprecated(now time.Time) int {
	s.ensureLoaded()

	horizon := time.Duration(s.opts.DeprecateAfterDays) * 24 * time.Hour
	removed := 0
	for id, rec := range s.snap.Patterns {
		if rec.Lifecycle.Active {
			continue
		}
		if now.Sub(rec.Lifecycle.LastSeen) > horizon {
			delete(s.snap.Patterns, id)
			removed++
		}
	}

	if removed > 0 {
		s.recomputeStats(now.UTC())
		s.persist()
		s.logger.Info("Removed deprecated patterns", map[string]interface{}{
			"count": removed,
		})
	}

	return removed
}

// GlobalStats returns the current store-wide aggregates.
func (s *Store) GlobalStats() GlobalStats {
	s.ensureLoaded()
	return s.snap.GlobalStats
}

// DetectorStatsFor returns the aggregates for one detector.
func (s *Store) DetectorStatsFor(detector string) (DetectorStats, bool) {
	s.ensureLoaded()
	ds, ok := s.snap.DetectorStats[detector]
	return ds, ok
}

// Snapshot returns a deep copy of the persisted document.
func (s *Store) Snapshot() (*Snapshot, error) {
	s.ensureLoaded()

	data, err := json.Marshal(s.snap)
	if err != nil {
		return nil, fmt.Errorf("failed to copy snapshot: %w", err)
	}
	var copy Snapshot
	if err := json.Unmarshal(data, &copy); err != nil {
		return nil, fmt.Errorf("failed to copy snapshot: %w", err)
	}
	return &copy, nil
}

// Reset clears all learned state, in memory and on disk. Tests use it for
// isolation between cases.
func (s *Store) Reset() {
	now := time.Now().UTC()
	s.loaded = true
	s.snap = newSnapshot(now)
	if s.opts.StatePath != "" {
		if err := os.Remove(s.opts.StatePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove state file on reset", map[string]interface{}{
				"path":  s.opts.StatePath,
				"error": err.Error(),
			})
		}
	}
}

// Close persists any loaded state. The store has no other resources.
func (s *Store) Close() {
	if s.loaded {
		s.persist()
	}
}

func (s *Store) archive(ev Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordEvent(ev); err != nil {
		s.logger.Warn("Failed to archive learning event", map[string]interface{}{
			"patternId": ev.PatternID,
			"error":     err.Error(),
		})
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
