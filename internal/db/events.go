package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Event kinds as stored in the kind column.
const (
	KindFileChange = "file_change"
	KindPrompt     = "prompt"
)

// HookEvent is one stored hook invocation.
type HookEvent struct {
	ID   string
	Kind string

	// Label is the change operation for file_change rows and the detected
	// intent for prompt rows.
	Label string

	CreatedAt     time.Time
	FileCount     int
	Notifications int
	Warnings      int
	Errors        int

	// PayloadJSON is the full diagnostics record as written by the sink.
	PayloadJSON string
}

// Stats summarizes the stored events.
type Stats struct {
	TotalEvents      int64
	FileChangeEvents int64
	PromptEvents     int64
	FilesAnalysed    int64
	Notifications    int64
	Warnings         int64
	Errors           int64

	// Intents counts prompt events by detected intent.
	Intents map[string]int64

	// Oldest is the creation time of the oldest stored event, if any.
	Oldest *time.Time
}

// Store is the diagnostics event store.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database whose schema is already migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertEvent stores ev. A repeated ID yields ErrDuplicateEvent.
func (s *Store) InsertEvent(ctx context.Context, ev HookEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hook_events (
			id, kind, label, created_at, file_count, notifications,
			warnings, errors, payload_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Kind, ev.Label, ev.CreatedAt.UnixMilli(),
		ev.FileCount, ev.Notifications, ev.Warnings, ev.Errors,
		ev.PayloadJSON,
	)
	if err != nil {
		return fmt.Errorf("insert hook event: %w", MapSQLError(err))
	}

	return nil
}

const selectEvents = `
	SELECT id, kind, label, created_at, file_count, notifications,
		warnings, errors, payload_json
	FROM hook_events`

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(ctx context.Context,
	limit int) ([]HookEvent, error) {

	rows, err := s.db.QueryContext(ctx, selectEvents+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", MapSQLError(err))
	}

	return scanEvents(rows)
}

// ListByKind returns up to limit events of one kind, newest first.
func (s *Store) ListByKind(ctx context.Context, kind string,
	limit int) ([]HookEvent, error) {

	rows, err := s.db.QueryContext(ctx, selectEvents+`
		WHERE kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, kind, normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list events by kind: %w",
			MapSQLError(err))
	}

	return scanEvents(rows)
}

// Stats aggregates counters over every stored event.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Intents: make(map[string]int64)}

	var oldest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(kind = ?), 0),
			COALESCE(SUM(kind = ?), 0),
			COALESCE(SUM(CASE WHEN kind = ? THEN file_count END), 0),
			COALESCE(SUM(notifications), 0),
			COALESCE(SUM(warnings), 0),
			COALESCE(SUM(errors), 0),
			MIN(created_at)
		FROM hook_events`,
		KindFileChange, KindPrompt, KindFileChange,
	).Scan(
		&stats.TotalEvents, &stats.FileChangeEvents,
		&stats.PromptEvents, &stats.FilesAnalysed,
		&stats.Notifications, &stats.Warnings, &stats.Errors,
		&oldest,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate events: %w",
			MapSQLError(err))
	}
	if oldest.Valid {
		t := time.UnixMilli(oldest.Int64)
		stats.Oldest = &t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT label, COUNT(*)
		FROM hook_events
		WHERE kind = ?
		GROUP BY label`, KindPrompt,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("count intents: %w",
			MapSQLError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label string
			count int64
		)
		if err := rows.Scan(&label, &count); err != nil {
			return Stats{}, fmt.Errorf("scan intent count: %w", err)
		}
		stats.Intents[label] = count
	}

	return stats, rows.Err()
}

// Prune deletes events created before olderThan and returns how many rows
// were removed.
func (s *Store) Prune(ctx context.Context,
	olderThan time.Time) (int64, error) {

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM hook_events WHERE created_at < ?`,
		olderThan.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", MapSQLError(err))
	}

	return res.RowsAffected()
}

// normalizeLimit applies the default page size to non-positive limits.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}

	return limit
}

func scanEvents(rows *sql.Rows) ([]HookEvent, error) {
	defer rows.Close()

	var events []HookEvent
	for rows.Next() {
		var (
			ev        HookEvent
			createdAt int64
		)
		err := rows.Scan(
			&ev.ID, &ev.Kind, &ev.Label, &createdAt, &ev.FileCount,
			&ev.Notifications, &ev.Warnings, &ev.Errors,
			&ev.PayloadJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.CreatedAt = time.UnixMilli(createdAt)

		events = append(events, ev)
	}

	return events, rows.Err()
}
