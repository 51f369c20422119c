package service

import (
	"context"
	"sync"
	"time"

	"supply_sandbox/internal/logger"
	"supply_sandbox/internal/models"
	"supply_sandbox/internal/repository"

	"github.com/google/uuid"
)

const defaultSessionTTL = 2 * time.Hour

// ReaperService deletes sessions nobody has touched for ttl.
type ReaperService struct {
	sessionRepo repository.SessionRepo
	eventRepo   repository.EventRepo
	ttl         time.Duration
	log         *logger.Logger

	// held for a whole sweep; shared with the configurator so a dispatch
	// in flight cannot save back a session the sweep just expired
	guard sync.Locker
}

// NewReaperService returns a reaper. guard may be nil when nothing else
// writes sessions.
func NewReaperService(sessionRepo repository.SessionRepo, eventRepo repository.EventRepo, ttl time.Duration, guard sync.Locker, log *logger.Logger) *ReaperService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	if guard == nil {
		guard = &sync.Mutex{}
	}
	return &ReaperService{
		sessionRepo: sessionRepo,
		eventRepo:   eventRepo,
		ttl:         ttl,
		log:         log,
		guard:       guard,
	}
}

// Run sweeps at the given interval until ctx is canceled.
func (s *ReaperService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if _, err := s.Sweep(ctx, now.UTC()); err != nil && ctx.Err() == nil {
				s.log.Errorw("session_sweep_failed", "err", err)
			}
		}
	}
}

// Sweep removes sessions idle since before now-ttl and logs EXPIRED for each.
func (s *ReaperService) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	expired, err := s.sessionRepo.DeleteIdle(ctx, now.Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	for _, idle := range expired {
		err := s.eventRepo.Append(ctx, models.SessionEvent{
			EventID:     uuid.NewString(),
			SessionID:   idle.ID,
			UserID:      idle.UserID,
			OccurredAt:  now,
			Type:        EventExpired,
			Description: "Session expired after inactivity",
			Metadata:    map[string]any{"ttl_sec": int(s.ttl.Seconds())},
		})
		if err != nil {
			s.log.Errorw("session_event_append_failed", "session_id", idle.ID, "type", EventExpired, "err", err)
		}
	}
	if len(expired) > 0 {
		s.log.Infow("sessions_expired", "count", len(expired), "ttl", s.ttl.String())
	}
	return len(expired), nil
}
