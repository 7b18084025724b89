// Package history keeps a durable log of pick outcomes in SQLite, so a
// session's draws can be reviewed after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// PickEvent is one recorded draw.
type PickEvent struct {
	ID           int64
	SessionID    string
	DisplayName  string // empty when the pool was exhausted
	GenderFilter string
	Removed      bool
	Outcome      string // "picked" or "exhausted"
	PickedAt     time.Time
}

// Pick outcomes.
const (
	OutcomePicked    = "picked"
	OutcomeExhausted = "exhausted"
)

// Store is a SQLite-backed pick log.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and if needed creates) the pick log.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS picks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		gender_filter TEXT NOT NULL,
		removed INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		picked_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_picks_session ON picks(session_id);
	CREATE INDEX IF NOT EXISTS idx_picks_picked_at ON picks(picked_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one pick event.
func (s *Store) Append(ctx context.Context, event PickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	when := event.PickedAt
	if when.IsZero() {
		when = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO picks (session_id, display_name, gender_filter, removed, outcome, picked_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.SessionID, event.DisplayName, event.GenderFilter, boolToInt(event.Removed), event.Outcome, when.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert pick event: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]PickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, display_name, gender_filter, removed, outcome, picked_at FROM picks ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pick events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// BySession returns every event for one session in pick order.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]PickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, display_name, gender_filter, removed, outcome, picked_at FROM picks WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pick events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]PickEvent, error) {
	var events []PickEvent
	for rows.Next() {
		var e PickEvent
		var removed int
		var pickedAtUnix int64

		if err := rows.Scan(&e.ID, &e.SessionID, &e.DisplayName, &e.GenderFilter, &removed, &e.Outcome, &pickedAtUnix); err != nil {
			return nil, fmt.Errorf("scan pick event: %w", err)
		}
		e.Removed = removed != 0
		e.PickedAt = time.Unix(pickedAtUnix, 0)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
