package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"supply_sandbox/internal/models"

	"github.com/google/uuid"
)

// Listing caps. Filters with Limit <= 0 get defaultEventLimit.
const (
	defaultEventLimit = 500
	maxEventLimit     = 5000
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const (
	insertEventSQL = `
		INSERT INTO session_events (id, session_id, user_id, occurred_at, type, message, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	selectEventsSQL = `SELECT id, session_id, user_id, occurred_at, type, message, meta FROM session_events`
)

// Append stores e. A missing id or timestamp is filled in; the type is
// upper-cased.
func (r *EventSQLite) Append(ctx context.Context, e models.SessionEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var meta sql.NullString
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for event %s: %w", e.EventID, err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID, e.SessionID, e.UserID, e.OccurredAt.UTC(),
		normalizeType(e.Type), e.Description, meta,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.EventID, err)
	}
	return nil
}

func normalizeType(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// buildEventQuery renders f as a SELECT in insertion order within equal
// timestamps.
func buildEventQuery(f EventFilter) (string, []any) {
	var (
		b     strings.Builder
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		where = append(where, cond)
		args = append(args, v)
	}

	if f.UserID != 0 {
		add("user_id = ?", f.UserID)
	}
	if f.SessionID != "" {
		add("session_id = ?", f.SessionID)
	}
	if !f.From.IsZero() {
		add("occurred_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("occurred_at <= ?", f.To.UTC())
	}
	if t := normalizeType(f.Type); t != "" {
		add("type = ?", t)
	}

	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}

	b.WriteString(selectEventsSQL)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at ASC, rowid ASC LIMIT ?")
	args = append(args, limit)
	return b.String(), args
}

func (r *EventSQLite) List(ctx context.Context, f EventFilter) ([]models.SessionEvent, error) {
	q, args := buildEventQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []models.SessionEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanEvent(rows *sql.Rows) (models.SessionEvent, error) {
	var (
		ev   models.SessionEvent
		meta sql.NullString
	)
	if err := rows.Scan(&ev.EventID, &ev.SessionID, &ev.UserID, &ev.OccurredAt, &ev.Type, &ev.Description, &meta); err != nil {
		return ev, fmt.Errorf("scan event: %w", err)
	}
	ev.OccurredAt = ev.OccurredAt.UTC()
	if meta.Valid && meta.String != "" {
		var v any
		if json.Unmarshal([]byte(meta.String), &v) == nil {
			ev.Metadata = v
		} else {
			// rows written by hand may hold non-JSON text
			ev.Metadata = meta.String
		}
	}
	return ev, nil
}
