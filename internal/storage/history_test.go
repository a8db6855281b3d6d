package storage

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"insight/internal/logging"
	"insight/internal/patterns"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := logging.NewLogger(logging.Config{
		Level: logging.ErrorLevel,
	})
	db, err := Open(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEvent(detector, eventType string, at time.Time) patterns.Event {
	return patterns.Event{
		PatternID:  "abc123",
		Detector:   detector,
		Kind:       "missing-index",
		Type:       eventType,
		Confidence: 80,
		IsValid:    eventType == "success",
		At:         at,
	}
}

func TestHistorySchemaCreated(t *testing.T) {
	db := openTestDB(t)

	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='learning_events'
	`).Scan(&tableName)
	if err != nil {
		t.Fatalf("learning_events table not found: %v", err)
	}
}

func TestRecordAndQueryEvents(t *testing.T) {
	db := openTestDB(t)
	history := NewHistoryStore(db)
	now := time.Now().UTC()

	if err := history.RecordEvent(testEvent("db-analyzer", "success", now)); err != nil {
		t.Fatalf("failed to record event: %v", err)
	}
	if err := history.RecordEvent(testEvent("db-analyzer", "failure", now)); err != nil {
		t.Fatalf("failed to record second event: %v", err)
	}

	correction := testEvent("security", "correction", now)
	correction.PatternID = "def456"
	correction.Reason = "confirmed by review"
	correction.UserID = "dev1"
	correction.IsValid = true
	if err := history.RecordEvent(correction); err != nil {
		t.Fatalf("failed to record correction: %v", err)
	}

	count, err := history.EventCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("EventCount = %d, want 3", count)
	}

	events, err := history.RecentEvents(10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	// Newest first.
	if events[0].Type != "correction" || events[0].Reason != "confirmed by review" {
		t.Errorf("newest event = %+v", events[0])
	}
	if !events[0].IsValid {
		t.Error("correction validity lost in round trip")
	}

	filtered, err := history.RecentEvents(10, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 {
		t.Errorf("filtered events = %d, want 2", len(filtered))
	}
}

func TestMalformedTimestampIsReportedNotDropped(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewLogger(logging.Config{Level: logging.WarnLevel, Output: buf})
	db, err := Open(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	history := NewHistoryStore(db)

	// A row written by a buggy or foreign tool, bypassing RecordEvent.
	if _, err := db.Exec(`
		INSERT INTO learning_events (
			pattern_id, detector, kind, event_type,
			confidence, is_valid, reason, user_id, recorded_at
		) VALUES ('abc123', 'db-analyzer', 'missing-index', 'success', 80, 1, '', '', 'not-a-timestamp')
	`); err != nil {
		t.Fatal(err)
	}

	events, err := history.RecentEvents(10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if !events[0].RecordedAt.IsZero() {
		t.Errorf("RecordedAt = %v, want zero for an unparseable timestamp", events[0].RecordedAt)
	}
	if !strings.Contains(buf.String(), "unparseable timestamp") {
		t.Errorf("expected a warning about the bad timestamp, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "not-a-timestamp") {
		t.Errorf("warning should include the raw value, got: %s", buf.String())
	}
}

func TestDetectorAggregates(t *testing.T) {
	db := openTestDB(t)
	history := NewHistoryStore(db)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if err := history.RecordEvent(testEvent("db-analyzer", "success", now)); err != nil {
			t.Fatal(err)
		}
	}
	if err := history.RecordEvent(testEvent("db-analyzer", "failure", now)); err != nil {
		t.Fatal(err)
	}
	if err := history.RecordEvent(testEvent("security", "failure", now)); err != nil {
		t.Fatal(err)
	}

	aggregates, err := history.DetectorAggregates(now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(aggregates) != 2 {
		t.Fatalf("len(aggregates) = %d, want 2", len(aggregates))
	}

	// Busiest detector first.
	agg := aggregates[0]
	if agg.Detector != "db-analyzer" || agg.EventCount != 4 {
		t.Errorf("top aggregate = %+v", agg)
	}
	if agg.SuccessRate != 0.75 {
		t.Errorf("SuccessRate = %v, want 0.75", agg.SuccessRate)
	}

	// A window starting in the future matches nothing.
	empty, err := history.DetectorAggregates(now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("future window matched %d aggregates", len(empty))
	}
}

func TestPrune(t *testing.T) {
	db := openTestDB(t)
	history := NewHistoryStore(db)

	old := time.Now().UTC().AddDate(0, 0, -120)
	recent := time.Now().UTC()

	if err := history.RecordEvent(testEvent("db-analyzer", "success", old)); err != nil {
		t.Fatal(err)
	}
	if err := history.RecordEvent(testEvent("db-analyzer", "success", recent)); err != nil {
		t.Fatal(err)
	}

	removed, err := history.Prune(recent.AddDate(0, 0, -90))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("Prune removed %d, want 1", removed)
	}

	count, err := history.EventCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("EventCount after prune = %d, want 1", count)
	}
}

func TestHistoryStoreWiresIntoPatternStore(t *testing.T) {
	db := openTestDB(t)
	history := NewHistoryStore(db)

	opts := patterns.DefaultOptions()
	store := patterns.NewStore(opts, nil)
	store.SetEventRecorder(history)

	sig := patterns.Signature{
		Category: patterns.CategoryDatabase,
		Detector: "db-analyzer",
		Kind:     "missing-index",
		Location: patterns.Location{FilePath: "db.go", Line: 1},
	}
	if err := store.RecordSuccess(sig, 80, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordFailure(sig, 60, nil); err != nil {
		t.Fatal(err)
	}

	count, err := history.EventCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("archived events = %d, want 2", count)
	}
}
