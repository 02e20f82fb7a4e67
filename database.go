package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// KillRow is one recorded kill
type KillRow struct {
	SessionID string    `json:"sid"`
	Victim    int       `json:"victim"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"at"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS journal_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		session_id TEXT,
		player INTEGER,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_session ON journal_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_journal_type ON journal_events(event_type);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Error("db migration", "err", err)
	}
	return err
}

// GetSetting returns a stored setting, or "" if absent
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// EventCounts returns counts of each event type, for one session or all
// sessions when sessionID is empty
func (db *DB) EventCounts(sessionID string) (map[string]int, error) {
	query := "SELECT event_type, COUNT(*) FROM journal_events"
	var args []interface{}
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " GROUP BY event_type"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			return nil, err
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// RecentKills returns the latest kills, newest first
func (db *DB) RecentKills(limit int) ([]KillRow, error) {
	rows, err := db.conn.Query(`
		SELECT COALESCE(session_id, ''), COALESCE(player, 0), COALESCE(data, ''), created_at
		FROM journal_events
		WHERE event_type = ?
		ORDER BY id DESC
		LIMIT ?`,
		EvtKill, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent kills: %w", err)
	}
	defer rows.Close()

	var result []KillRow
	for rows.Next() {
		var r KillRow
		var at string
		if err := rows.Scan(&r.SessionID, &r.Victim, &r.Data, &at); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, at)
		result = append(result, r)
	}
	return result, rows.Err()
}
