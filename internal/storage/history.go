package storage

import (
	"database/sql"
	"time"

	"insight/internal/patterns"
)

// HistoryStore archives every learning event to SQLite. It implements
// patterns.EventRecorder; the pattern store absorbs any error it returns,
// so the archive never blocks learning.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore wraps a database as a learning-event archive.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// RecordEvent appends one learning event.
func (h *HistoryStore) RecordEvent(ev patterns.Event) error {
	_, err := h.db.Exec(`
		INSERT INTO learning_events (
			pattern_id, detector, kind, event_type,
			confidence, is_valid, reason, user_id, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.PatternID, ev.Detector, ev.Kind, ev.Type,
		ev.Confidence, boolToInt(ev.IsValid), ev.Reason, ev.UserID,
		ev.At.UTC().Format(time.RFC3339))
	return err
}

// EventRow is one archived learning event.
type EventRow struct {
	ID         int64     `json:"id"`
	PatternID  string    `json:"patternId"`
	Detector   string    `json:"detector"`
	Kind       string    `json:"kind"`
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
	IsValid    bool      `json:"isValid"`
	Reason     string    `json:"reason,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// DetectorAggregate summarizes a detector's archived events in a window.
type DetectorAggregate struct {
	Detector    string  `json:"detector"`
	EventCount  int64   `json:"eventCount"`
	Successes   int64   `json:"successes"`
	Failures    int64   `json:"failures"`
	Corrections int64   `json:"corrections"`
	SuccessRate float64 `json:"successRate"`
}

// RecentEvents returns the newest archived events, optionally filtered by
// pattern id.
func (h *HistoryStore) RecentEvents(limit int, patternID string) ([]EventRow, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if patternID != "" {
		rows, err = h.db.Query(`
			SELECT id, pattern_id, detector, kind, event_type,
			       confidence, is_valid, COALESCE(reason, ''), COALESCE(user_id, ''), recorded_at
			FROM learning_events
			WHERE pattern_id = ?
			ORDER BY id DESC
			LIMIT ?
		`, patternID, limit)
	} else {
		rows, err = h.db.Query(`
			SELECT id, pattern_id, detector, kind, event_type,
			       confidence, is_valid, COALESCE(reason, ''), COALESCE(user_id, ''), recorded_at
			FROM learning_events
			ORDER BY id DESC
			LIMIT ?
		`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return h.scanEvents(rows)
}

// DetectorAggregates returns per-detector event summaries since the given
// time, busiest detectors first.
func (h *HistoryStore) DetectorAggregates(since time.Time) ([]DetectorAggregate, error) {
	rows, err := h.db.Query(`
		SELECT
			detector,
			COUNT(*) as event_count,
			SUM(CASE WHEN event_type = 'success' THEN 1 ELSE 0 END) as successes,
			SUM(CASE WHEN event_type = 'failure' THEN 1 ELSE 0 END) as failures,
			SUM(CASE WHEN event_type = 'correction' THEN 1 ELSE 0 END) as corrections
		FROM learning_events
		WHERE recorded_at >= ?
		GROUP BY detector
		ORDER BY event_count DESC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggregates []DetectorAggregate
	for rows.Next() {
		var agg DetectorAggregate
		if err := rows.Scan(&agg.Detector, &agg.EventCount, &agg.Successes, &agg.Failures, &agg.Corrections); err != nil {
			return nil, err
		}
		outcomes := agg.Successes + agg.Failures
		if outcomes > 0 {
			agg.SuccessRate = float64(agg.Successes) / float64(outcomes)
		}
		aggregates = append(aggregates, agg)
	}

	return aggregates, rows.Err()
}

// EventCount returns the total number of archived events.
func (h *HistoryStore) EventCount() (int64, error) {
	var count int64
	err := h.db.QueryRow(`SELECT COUNT(*) FROM learning_events`).Scan(&count)
	return count, err
}

// Prune deletes archived events older than the given time and returns the
// removed count.
func (h *HistoryStore) Prune(before time.Time) (int64, error) {
	res, err := h.db.Exec(`
		DELETE FROM learning_events WHERE recorded_at < ?
	`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (h *HistoryStore) scanEvents(rows *sql.Rows) ([]EventRow, error) {
	var events []EventRow
	for rows.Next() {
		var ev EventRow
		var isValid int
		var recordedAt string
		if err := rows.Scan(&ev.ID, &ev.PatternID, &ev.Detector, &ev.Kind, &ev.Type,
			&ev.Confidence, &isValid, &ev.Reason, &ev.UserID, &recordedAt); err != nil {
			return nil, err
		}
		ev.IsValid = isValid != 0
		t, err := time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			// The row is still returned; a zero RecordedAt with a warning
			// beats hiding the event.
			h.db.logger.Warn("Archived event has unparseable timestamp", map[string]interface{}{
				"eventId":    ev.ID,
				"recordedAt": recordedAt,
				"error":      err.Error(),
			})
		} else {
			ev.RecordedAt = t
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
