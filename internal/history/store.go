// Package history keeps an audit log of chat turns and their progress events
// in SQLite, and fans live events out to streaming subscribers.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Turn is one recorded exchange.
type Turn struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	RunID     string    `json:"runId,omitempty"`
	Channel   string    `json:"channel"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Outcome   string    `json:"outcome"`
	Polls     int       `json:"polls"`
	ToolCalls int       `json:"toolCalls"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is one orchestrator progress notification.
type Event struct {
	ID        int64     `json:"id"`
	ThreadID  string    `json:"threadId"`
	RunID     string    `json:"runId,omitempty"`
	Type      string    `json:"type"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists turns and events.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at the given path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id         TEXT PRIMARY KEY,
			thread_id  TEXT NOT NULL,
			run_id     TEXT NOT NULL DEFAULT '',
			channel    TEXT NOT NULL DEFAULT '',
			message    TEXT NOT NULL,
			reply      TEXT NOT NULL DEFAULT '',
			outcome    TEXT NOT NULL DEFAULT '',
			polls      INTEGER NOT NULL DEFAULT 0,
			tool_calls INTEGER NOT NULL DEFAULT 0,
			error      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_turns_thread_id
			ON turns(thread_id);

		CREATE TABLE IF NOT EXISTS turn_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id  TEXT NOT NULL,
			run_id     TEXT NOT NULL DEFAULT '',
			type       TEXT NOT NULL,
			data       TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_turn_events_thread_id
			ON turn_events(thread_id);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddTurn inserts a finished turn.
func (s *Store) AddTurn(t *Turn) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (id, thread_id, run_id, channel, message, reply,
		                    outcome, polls, tool_calls, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ThreadID, t.RunID, t.Channel, t.Message, t.Reply,
		t.Outcome, t.Polls, t.ToolCalls, t.Error, t.CreatedAt,
	)
	return err
}

// ListTurns returns a thread's turns, oldest first.
func (s *Store) ListTurns(threadID string) ([]*Turn, error) {
	rows, err := s.db.Query(
		`SELECT id, thread_id, run_id, channel, message, reply, outcome,
		        polls, tool_calls, error, created_at
		 FROM turns WHERE thread_id = ?
		 ORDER BY created_at ASC, rowid ASC`, threadID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*Turn
	for rows.Next() {
		t := &Turn{}
		if err := rows.Scan(
			&t.ID, &t.ThreadID, &t.RunID, &t.Channel, &t.Message, &t.Reply,
			&t.Outcome, &t.Polls, &t.ToolCalls, &t.Error, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// AddEvent inserts an event and sets its ID.
func (s *Store) AddEvent(e *Event) error {
	result, err := s.db.Exec(
		`INSERT INTO turn_events (thread_id, run_id, type, data, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ThreadID, e.RunID, e.Type, e.Data, e.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// ListEvents returns a thread's events with an ID greater than afterID.
func (s *Store) ListEvents(threadID string, afterID int64) ([]*Event, error) {
	rows, err := s.db.Query(
		`SELECT id, thread_id, run_id, type, data, created_at
		 FROM turn_events
		 WHERE thread_id = ? AND id > ?
		 ORDER BY id ASC`,
		threadID, afterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.ThreadID, &e.RunID, &e.Type, &e.Data, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
