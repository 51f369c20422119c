package repository

import (
	"context"
	"database/sql"
	"time"

	"supply_sandbox/internal/models"
)

// UserRepo stores planner accounts.
type UserRepo interface {
	Create(ctx context.Context, u models.User) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// IdleSession identifies a session removed for inactivity.
type IdleSession struct {
	ID     string
	UserID int
}

// SessionRepo persists wizard sessions as JSON documents.
type SessionRepo interface {
	Save(ctx context.Context, s models.Session) error
	Load(ctx context.Context, id string) (models.Session, error)
	ListByUser(ctx context.Context, userID int) ([]models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteIdle(ctx context.Context, before time.Time) ([]IdleSession, error)
}

// EventFilter narrows an event listing. Zero fields are ignored.
type EventFilter struct {
	UserID    int
	SessionID string
	From      time.Time // inclusive
	To        time.Time // inclusive
	Type      string
	Limit     int // <= 0 means the repository default
}

type EventRepo interface {
	Append(ctx context.Context, e models.SessionEvent) error
	List(ctx context.Context, f EventFilter) ([]models.SessionEvent, error)
}

// RunRepo stores scenario lists handed off to the sandbox.
type RunRepo interface {
	Create(ctx context.Context, r models.SandboxRun) error
	Get(ctx context.Context, id string) (*models.SandboxRun, error)
	ListByUser(ctx context.Context, userID int) ([]models.SandboxRun, error)
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	SessionRepo SessionRepo
	EventRepo   EventRepo
	RunRepo     RunRepo
	Users       UserRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SessionRepo: NewSessionSQLite(db),
		EventRepo:   NewEventSQLite(db),
		RunRepo:     NewRunSQLite(db),
		Users:       NewUserSQLite(db),
	}
}
