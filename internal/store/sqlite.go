package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"eventscout/internal/model"
)

// SQLiteStore persists events in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	canonical_url TEXT NOT NULL UNIQUE,
	source_url TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	location TEXT,
	start_time TEXT,
	end_time TEXT,
	speakers TEXT,
	sponsors TEXT,
	platform TEXT,
	completeness REAL NOT NULL DEFAULT 0,
	source_tier INTEGER NOT NULL DEFAULT 0,
	fingerprint TEXT,
	extracted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_fingerprint ON events(fingerprint);
`

// NewSQLiteStore opens (and migrates) the database at path.
// Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertEvent(ctx context.Context, ev *model.Event) error {
	speakers, err := json.Marshal(ev.Speakers)
	if err != nil {
		return fmt.Errorf("marshal speakers: %w", err)
	}
	sponsors, err := json.Marshal(ev.Sponsors)
	if err != nil {
		return fmt.Errorf("marshal sponsors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (canonical_url, source_url, name, description, location,
			start_time, end_time, speakers, sponsors, platform,
			completeness, source_tier, fingerprint, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.CanonicalURL, ev.SourceURL, ev.Name, ev.Description, ev.Location,
		timeOrEmpty(ev.StartTime), timeOrEmpty(ev.EndTime),
		string(speakers), string(sponsors), ev.Platform,
		ev.Completeness, ev.SourceTier, ev.Fingerprint(),
		ev.ExtractedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindByCanonicalURL(ctx context.Context, canonicalURL string) (*model.Event, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT canonical_url, source_url, name, description, location,
			start_time, end_time, speakers, sponsors, platform,
			completeness, source_tier, extracted_at
		FROM events WHERE canonical_url = ?`, canonicalURL)

	var ev model.Event
	var start, end, speakers, sponsors, extractedAt string
	err := row.Scan(&ev.CanonicalURL, &ev.SourceURL, &ev.Name, &ev.Description, &ev.Location,
		&start, &end, &speakers, &sponsors, &ev.Platform,
		&ev.Completeness, &ev.SourceTier, &extractedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query event: %w", err)
	}

	ev.StartTime = parseTime(start)
	ev.EndTime = parseTime(end)
	if t := parseTime(extractedAt); t != nil {
		ev.ExtractedAt = *t
	}
	_ = json.Unmarshal([]byte(speakers), &ev.Speakers)
	_ = json.Unmarshal([]byte(sponsors), &ev.Sponsors)
	ev.Status = model.StatusSuccess

	return &ev, true, nil
}

func (s *SQLiteStore) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM events WHERE fingerprint = ?`, fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query fingerprint: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
