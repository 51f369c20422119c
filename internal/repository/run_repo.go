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

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

const (
	insertRunSQL        = `INSERT INTO sandbox_runs (id, user_id, session_id, scenarios, created_at) VALUES (?, ?, ?, ?, ?)`
	selectRunSQL        = `SELECT id, user_id, session_id, scenarios, created_at FROM sandbox_runs WHERE id = ?`
	selectRunsByUserSQL = `SELECT id, user_id, session_id, scenarios, created_at FROM sandbox_runs WHERE user_id = ? ORDER BY created_at DESC`
	deleteRunSQL        = `DELETE FROM sandbox_runs WHERE id = ?`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RunSQLite) Create(ctx context.Context, run models.SandboxRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(run.Scenarios)
	if err != nil {
		return fmt.Errorf("marshal scenarios for run %s: %w", run.ID, err)
	}
	if _, err := r.db.ExecContext(ctx, insertRunSQL, run.ID, run.UserID, run.SessionID, string(doc), run.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Get fetches a run by id. Returns (nil, nil) if not found.
func (r *RunSQLite) Get(ctx context.Context, id string) (*models.SandboxRun, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, selectRunSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select run %s: %w", id, err)
	}
	return &run, nil
}

func (r *RunSQLite) ListByUser(ctx context.Context, userID int) ([]models.SandboxRun, error) {
	rows, err := r.db.QueryContext(ctx, selectRunsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list runs for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.SandboxRun, 0, 8)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a run. A missing id is not an error.
func (r *RunSQLite) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, deleteRunSQL, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}

func scanRun(row rowScanner) (models.SandboxRun, error) {
	var (
		run models.SandboxRun
		doc string
	)
	if err := row.Scan(&run.ID, &run.UserID, &run.SessionID, &doc, &run.CreatedAt); err != nil {
		return models.SandboxRun{}, err
	}
	if err := json.Unmarshal([]byte(doc), &run.Scenarios); err != nil {
		return models.SandboxRun{}, fmt.Errorf("decode scenarios for run %s: %w", run.ID, err)
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return run, nil
}
