package service

import (
	"context"
	"errors"
	"time"

	"supply_sandbox/internal/logger"
	"supply_sandbox/internal/models"
	"supply_sandbox/internal/repository"
	"supply_sandbox/internal/wizard"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRunNotFound     = errors.New("sandbox run not found")
)

// Authorization manages planner accounts and bearer tokens.
type Authorization interface {
	SignUp(ctx context.Context, cred Credentials) (int, error)
	SignIn(ctx context.Context, cred Credentials) (Token, error)
	ParseToken(raw string) (int, error)
}

// Configurator drives a user's wizard sessions through the state machine.
type Configurator interface {
	Open(ctx context.Context, userID int) (Snapshot, error)
	Get(ctx context.Context, userID int, sessionID string) (Snapshot, error)
	List(ctx context.Context, userID int) ([]models.Session, error)
	Dispatch(ctx context.Context, userID int, sessionID string, ev wizard.Event) (Outcome, error)
	Close(ctx context.Context, userID int, sessionID string) error
}

// Catalog exposes the static category/variable/knob table.
type Catalog interface {
	Catalog() CatalogView
}

// Sandbox receives applied scenario lists and serves them back as runs.
type Sandbox interface {
	Applier
	ListRuns(ctx context.Context, userID int) ([]models.SandboxRun, error)
	GetRun(ctx context.Context, userID int, runID string) (models.SandboxRun, error)
}

// Applier is the hand-off target for an accepted APPLY. Revoke undoes a
// hand-off whose session could not be saved.
type Applier interface {
	Apply(ctx context.Context, userID int, sessionID string, scenarios []models.ConfiguredScenario) (models.SandboxRun, error)
	Revoke(ctx context.Context, userID int, runID string) error
}

// EventLog exposes the append-only session history.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
}

// Reaper expires idle sessions in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Reaper interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Configurator
	Catalog
	Sandbox
	EventLog
	Reaper
	Authorization
}

// Options carries the configuration values the services need.
type Options struct {
	SigningKey string
	TokenTTL   time.Duration
	SessionTTL time.Duration
	// Schema overrides the configurator table; nil means wizard.DefaultSchema.
	Schema *wizard.Schema
}

func NewService(repos *repository.Repository, log *logger.Logger, opts Options) *Service {
	schema := opts.Schema
	if schema == nil {
		schema = wizard.DefaultSchema()
	}
	machine := wizard.NewMachine(schema, newScenarioID)
	sandbox := NewSandboxService(repos.RunRepo)
	configurator := NewConfiguratorService(machine, repos.SessionRepo, repos.EventRepo, sandbox, log)
	return &Service{
		Configurator:  configurator,
		Catalog:       NewCatalogService(machine.Schema()),
		Sandbox:       sandbox,
		EventLog:      NewEventLogService(repos.EventRepo),
		Reaper:        NewReaperService(repos.SessionRepo, repos.EventRepo, opts.SessionTTL, configurator.SessionLock(), log),
		Authorization: NewAuthService(repos.Users, opts.SigningKey, opts.TokenTTL),
	}
}
