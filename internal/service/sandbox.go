package service

import (
	"context"
	"fmt"
	"time"

	"supply_sandbox/internal/models"
	"supply_sandbox/internal/repository"

	"github.com/google/uuid"
)

// SandboxService stores applied scenario lists as runs.
type SandboxService struct {
	runRepo repository.RunRepo
	now     func() time.Time
}

func NewSandboxService(runRepo repository.RunRepo) *SandboxService {
	return &SandboxService{runRepo: runRepo, now: func() time.Time { return time.Now().UTC() }}
}

// Apply records scenarios as a new run owned by userID.
func (s *SandboxService) Apply(ctx context.Context, userID int, sessionID string, scenarios []models.ConfiguredScenario) (models.SandboxRun, error) {
	run := models.SandboxRun{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Scenarios: append([]models.ConfiguredScenario{}, scenarios...),
		CreatedAt: s.now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return models.SandboxRun{}, fmt.Errorf("store sandbox run: %w", err)
	}
	return run, nil
}

// Revoke deletes a run created by Apply. Runs of other users are left alone.
func (s *SandboxService) Revoke(ctx context.Context, userID int, runID string) error {
	run, err := s.runRepo.Get(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil || run.UserID != userID {
		return ErrRunNotFound
	}
	if err := s.runRepo.Delete(ctx, runID); err != nil {
		return fmt.Errorf("revoke sandbox run: %w", err)
	}
	return nil
}

func (s *SandboxService) ListRuns(ctx context.Context, userID int) ([]models.SandboxRun, error) {
	runs, err := s.runRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.SandboxRun{}
	}
	return runs, nil
}

// GetRun returns ErrRunNotFound for missing runs and for runs of other users.
func (s *SandboxService) GetRun(ctx context.Context, userID int, runID string) (models.SandboxRun, error) {
	run, err := s.runRepo.Get(ctx, runID)
	if err != nil {
		return models.SandboxRun{}, err
	}
	if run == nil || run.UserID != userID {
		return models.SandboxRun{}, ErrRunNotFound
	}
	return *run, nil
}
