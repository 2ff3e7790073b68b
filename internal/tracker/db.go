package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ari/focustrack/internal/category"
)

// DB represents the database connection
type DB struct {
	db *sql.DB
}

// Open opens the database at the given path
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.db.Close()
}

// migrate creates the database tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		app TEXT NOT NULL,
		title TEXT,
		site TEXT,
		category TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS score_samples (
		date TEXT PRIMARY KEY,
		score INTEGER NOT NULL,
		productive_seconds INTEGER NOT NULL DEFAULT 0,
		neutral_seconds INTEGER NOT NULL DEFAULT 0,
		time_wasting_seconds INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS streak_days (
		date TEXT PRIMARY KEY,
		longest_streak_seconds INTEGER NOT NULL DEFAULT 0,
		distractions INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER
	);
	`

	_, err := db.db.Exec(schema)
	return err
}

// SetMetadata stores a key/value pair
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	query := `INSERT OR REPLACE INTO metadata (key, value, updated_at) VALUES (?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value for key, or the empty string when unset
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata %s: %w", key, err)
	}
	return value, nil
}

// SessionRow represents a closed session database row
type SessionRow struct {
	ID              string
	App             string
	Title           string
	Site            string
	Category        string
	StartedAt       int64
	EndedAt         int64
	DurationSeconds int64
}

// Session converts the row back into the domain type
func (r *SessionRow) Session() Session {
	return Session{
		ID:        r.ID,
		App:       r.App,
		Title:     r.Title,
		Site:      r.Site,
		Category:  category.Category(r.Category),
		StartedAt: time.Unix(r.StartedAt, 0),
		LastSeen:  time.Unix(r.EndedAt, 0),
		EndedAt:   time.Unix(r.EndedAt, 0),
	}
}

func sessionRow(s *Session) *SessionRow {
	return &SessionRow{
		ID:              s.ID,
		App:             s.App,
		Title:           s.Title,
		Site:            s.Site,
		Category:        string(s.Category),
		StartedAt:       s.StartedAt.Unix(),
		EndedAt:         s.EndedAt.Unix(),
		DurationSeconds: int64(s.Duration().Seconds()),
	}
}

// InsertSession appends a closed session
func (db *DB) InsertSession(ctx context.Context, s *SessionRow) error {
	query := `
	INSERT INTO sessions (id, app, title, site, category, started_at, ended_at, duration_seconds)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.db.ExecContext(ctx, query,
		s.ID, s.App, s.Title, s.Site, s.Category, s.StartedAt, s.EndedAt, s.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetRecentSessions returns the most recent N sessions ordered by start time
// descending
func (db *DB) GetRecentSessions(ctx context.Context, limit int) ([]SessionRow, error) {
	query := `SELECT id, app, title, site, category, started_at, ended_at, duration_seconds
		FROM sessions ORDER BY started_at DESC LIMIT ?`

	rows, err := db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// GetSessionsSince returns all sessions starting at or after the timestamp,
// oldest first
func (db *DB) GetSessionsSince(ctx context.Context, since int64) ([]SessionRow, error) {
	query := `SELECT id, app, title, site, category, started_at, ended_at, duration_seconds
		FROM sessions WHERE started_at >= ? ORDER BY started_at ASC`

	rows, err := db.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]SessionRow, error) {
	var sessions []SessionRow
	for rows.Next() {
		var s SessionRow
		err := rows.Scan(&s.ID, &s.App, &s.Title, &s.Site, &s.Category,
			&s.StartedAt, &s.EndedAt, &s.DurationSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SampleRow represents a daily score sample database row
type SampleRow struct {
	Date               string
	Score              int64
	ProductiveSeconds  int64
	NeutralSeconds     int64
	TimeWastingSeconds int64
}

// UpsertScoreSample inserts or replaces the sample for a day
func (db *DB) UpsertScoreSample(ctx context.Context, s *SampleRow) error {
	query := `INSERT OR REPLACE INTO score_samples
		(date, score, productive_seconds, neutral_seconds, time_wasting_seconds, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		s.Date, s.Score, s.ProductiveSeconds, s.NeutralSeconds, s.TimeWastingSeconds,
		time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert score sample: %w", err)
	}
	return nil
}

// GetScoreSamples returns samples from sinceDate onward, oldest first
func (db *DB) GetScoreSamples(ctx context.Context, sinceDate string) ([]SampleRow, error) {
	query := `SELECT date, score, productive_seconds, neutral_seconds, time_wasting_seconds
		FROM score_samples WHERE date >= ? ORDER BY date ASC`

	rows, err := db.db.QueryContext(ctx, query, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query score samples: %w", err)
	}
	defer rows.Close()

	var samples []SampleRow
	for rows.Next() {
		var s SampleRow
		if err := rows.Scan(&s.Date, &s.Score, &s.ProductiveSeconds, &s.NeutralSeconds, &s.TimeWastingSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan score sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// StreakDayRow represents an archived day's streak state
type StreakDayRow struct {
	Date                 string
	LongestStreakSeconds int64
	Distractions         int64
}

// UpsertStreakDay inserts or replaces the archived streak state for a day
func (db *DB) UpsertStreakDay(ctx context.Context, s *StreakDayRow) error {
	query := `INSERT OR REPLACE INTO streak_days (date, longest_streak_seconds, distractions)
		VALUES (?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query, s.Date, s.LongestStreakSeconds, s.Distractions)
	if err != nil {
		return fmt.Errorf("failed to upsert streak day: %w", err)
	}
	return nil
}

// GetStreakDays returns archived streak days from sinceDate onward, oldest
// first
func (db *DB) GetStreakDays(ctx context.Context, sinceDate string) ([]StreakDayRow, error) {
	query := `SELECT date, longest_streak_seconds, distractions
		FROM streak_days WHERE date >= ? ORDER BY date ASC`

	rows, err := db.db.QueryContext(ctx, query, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query streak days: %w", err)
	}
	defer rows.Close()

	var days []StreakDayRow
	for rows.Next() {
		var s StreakDayRow
		if err := rows.Scan(&s.Date, &s.LongestStreakSeconds, &s.Distractions); err != nil {
			return nil, fmt.Errorf("failed to scan streak day: %w", err)
		}
		days = append(days, s)
	}
	return days, rows.Err()
}
