package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supply_sandbox/internal/models"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

const (
	upsertSessionSQL = `
		INSERT INTO wizard_sessions (id, user_id, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state=excluded.state,
			updated_at=excluded.updated_at
	`

	selectSessionSQL        = `SELECT state FROM wizard_sessions WHERE id = ?`
	selectSessionsByUserSQL = `SELECT state FROM wizard_sessions WHERE user_id = ? ORDER BY updated_at DESC`
	deleteSessionSQL        = `DELETE FROM wizard_sessions WHERE id = ?`
	selectIdleSessionsSQL   = `SELECT id, user_id FROM wizard_sessions WHERE updated_at < ?`
	deleteIdleSessionsSQL   = `DELETE FROM wizard_sessions WHERE updated_at < ?`
)

// Save inserts or replaces the session document. UpdatedAt is stored as UTC
// and set to now when zero.
func (r *SessionSQLite) Save(ctx context.Context, s models.Session) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	} else {
		s.UpdatedAt = s.UpdatedAt.UTC()
	}
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	if _, err := r.db.ExecContext(ctx, upsertSessionSQL, s.ID, s.UserID, string(doc), s.UpdatedAt); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the session with the given id, or a zero Session if none.
func (r *SessionSQLite) Load(ctx context.Context, id string) (models.Session, error) {
	var doc string
	if err := r.db.QueryRowContext(ctx, selectSessionSQL, id).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, nil
		}
		return models.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return decodeSession(doc)
}

// ListByUser returns a user's sessions, most recently updated first.
func (r *SessionSQLite) ListByUser(ctx context.Context, userID int) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, selectSessionsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.Session, 0, 8)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		s, err := decodeSession(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SessionSQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// DeleteIdle removes sessions not updated since before and returns what was removed.
func (r *SessionSQLite) DeleteIdle(ctx context.Context, before time.Time) ([]IdleSession, error) {
	before = before.UTC()
	rows, err := r.db.QueryContext(ctx, selectIdleSessionsSQL, before)
	if err != nil {
		return nil, fmt.Errorf("select idle sessions: %w", err)
	}
	var ids []IdleSession
	for rows.Next() {
		var id IdleSession
		if err := rows.Scan(&id.ID, &id.UserID); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := r.db.ExecContext(ctx, deleteIdleSessionsSQL, before); err != nil {
		return nil, fmt.Errorf("delete idle sessions: %w", err)
	}
	return ids, nil
}

func decodeSession(doc string) (models.Session, error) {
	var s models.Session
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
