package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"insight/internal/logging"
)

// DB is a SQLite connection with the schema used by the learning-event
// archive.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the SQLite database at .insight/insight.db under
// repoRoot, creating the schema on first use.
func Open(repoRoot string, logger *logging.Logger) (*DB, error) {
	stateDir := filepath.Join(repoRoot, ".insight")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .insight directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, "insight.db")
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating new database", map[string]interface{}{
			"path": dbPath,
		})
	}
	if err := db.initializeSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) initializeSchema() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS learning_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pattern_id TEXT NOT NULL,
			detector TEXT NOT NULL,
			kind TEXT NOT NULL,
			event_type TEXT NOT NULL,
			confidence REAL NOT NULL,
			is_valid INTEGER NOT NULL,
			reason TEXT,
			user_id TEXT,
			recorded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_learning_events_pattern
			ON learning_events(pattern_id);
		CREATE INDEX IF NOT EXISTS idx_learning_events_detector
			ON learning_events(detector);
		CREATE INDEX IF NOT EXISTS idx_learning_events_recorded
			ON learning_events(recorded_at);
	`)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Exec executes a query without returning rows.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
