package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"supply_sandbox/internal/logger"
	"supply_sandbox/internal/models"
	"supply_sandbox/internal/repository"
	"supply_sandbox/internal/wizard"

	"github.com/google/uuid"
)

// Session event types written besides the wizard action names.
const (
	EventOpened          = "OPENED"
	EventClosed          = "CLOSED"
	EventExpired         = "EXPIRED"
	EventSubformDetached = "SUBFORM_DETACHED"
	EventApplyHandedOff  = "APPLY_HANDED_OFF"
)

// Snapshot is a session plus what the client may do next.
type Snapshot struct {
	Session         models.Session  `json:"session"`
	Layout          wizard.Layout   `json:"layout"`
	Actions         []wizard.Action `json:"actions"`
	VariableOptions []string        `json:"variable_options"`
}

// Outcome is the result of dispatching one event.
type Outcome struct {
	Snapshot
	Accepted bool               `json:"accepted"`
	Run      *models.SandboxRun `json:"run,omitempty"`
}

type ConfiguratorService struct {
	machine     *wizard.Machine
	sessionRepo repository.SessionRepo
	eventRepo   repository.EventRepo
	applier     Applier
	log         *logger.Logger
	now         func() time.Time

	// serializes load-reduce-save so concurrent dispatches cannot lose updates
	mu *sync.Mutex
}

func NewConfiguratorService(
	machine *wizard.Machine,
	sessionRepo repository.SessionRepo,
	eventRepo repository.EventRepo,
	applier Applier,
	log *logger.Logger,
) *ConfiguratorService {
	if log == nil {
		log = logger.Nop()
	}
	return &ConfiguratorService{
		machine:     machine,
		sessionRepo: sessionRepo,
		eventRepo:   eventRepo,
		applier:     applier,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		mu:          &sync.Mutex{},
	}
}

// SessionLock is the lock Dispatch and Close hold while they rewrite a
// session. Other session writers share it.
func (s *ConfiguratorService) SessionLock() sync.Locker { return s.mu }

func newScenarioID() string { return uuid.NewString() }

// Open creates and stores a fresh session for userID.
func (s *ConfiguratorService) Open(ctx context.Context, userID int) (Snapshot, error) {
	sess := s.machine.NewSession(uuid.NewString(), userID, s.now())
	if err := s.sessionRepo.Save(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	s.record(ctx, sess, EventOpened, "Configurator opened", nil)
	return s.snapshot(sess), nil
}

func (s *ConfiguratorService) Get(ctx context.Context, userID int, sessionID string) (Snapshot, error) {
	sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(sess), nil
}

func (s *ConfiguratorService) List(ctx context.Context, userID int) ([]models.Session, error) {
	list, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Session{}
	}
	return list, nil
}

// Dispatch feeds ev to the session. Disabled actions are not errors: the
// unchanged snapshot comes back with Accepted=false.
func (s *ConfiguratorService) Dispatch(ctx context.Context, userID int, sessionID string, ev wizard.Event) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return Outcome{}, err
	}

	res := s.machine.Reduce(prev, ev)
	if !res.Accepted {
		return Outcome{Snapshot: s.snapshot(prev)}, nil
	}

	next := res.Session
	next.UpdatedAt = s.now()

	var run *models.SandboxRun
	if ev.Action() == wizard.ActionApply {
		// a failed hand-off leaves the stored session untouched
		r, err := s.applier.Apply(ctx, userID, sessionID, res.Applied)
		if err != nil {
			return Outcome{}, fmt.Errorf("apply session %s: %w", sessionID, err)
		}
		run = &r
	}

	if err := s.sessionRepo.Save(ctx, next); err != nil {
		if run != nil {
			s.revoke(ctx, userID, sessionID, run.ID)
		}
		return Outcome{}, err
	}

	s.record(ctx, next, string(ev.Action()), describe(ev), transitionMeta(prev, next))
	if run != nil {
		s.record(ctx, next, EventApplyHandedOff, "Scenario list handed to sandbox", map[string]any{
			"run_id":         run.ID,
			"scenario_count": len(run.Scenarios),
		})
		s.log.Infow("scenario_list_applied", "session_id", sessionID, "run_id", run.ID, "scenarios", len(run.Scenarios))
	}
	if n := detachedEntries(prev, ev); n > 0 {
		s.log.Warnw("scenario_subform_entries_not_attached",
			"session_id", sessionID,
			"variable", prev.Variable,
			"entries", n,
		)
		s.record(ctx, next, EventSubformDetached, "Sub-form entries were not attached to the saved scenario", map[string]any{
			"variable": prev.Variable,
			"entries":  n,
		})
	}

	return Outcome{Snapshot: s.snapshot(next), Accepted: true, Run: run}, nil
}

// Close removes the session. Unknown or foreign sessions yield ErrSessionNotFound.
func (s *ConfiguratorService) Close(ctx context.Context, userID int, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.record(ctx, sess, EventClosed, "Configurator session deleted", map[string]any{
		"scenario_count": len(sess.Scenarios),
	})
	return nil
}

// revoke drops a run whose session save failed, so a retried APPLY hands the
// list off exactly once.
func (s *ConfiguratorService) revoke(ctx context.Context, userID int, sessionID, runID string) {
	if err := s.applier.Revoke(ctx, userID, runID); err != nil {
		s.log.Errorw("sandbox_run_revoke_failed", "session_id", sessionID, "run_id", runID, "err", err)
		return
	}
	s.log.Warnw("sandbox_run_revoked", "session_id", sessionID, "run_id", runID)
}

func (s *ConfiguratorService) load(ctx context.Context, userID int, sessionID string) (models.Session, error) {
	sess, err := s.sessionRepo.Load(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}
	if sess.ID == "" || sess.UserID != userID {
		return models.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *ConfiguratorService) snapshot(sess models.Session) Snapshot {
	return Snapshot{
		Session:         sess,
		Layout:          wizard.LayoutFor(sess),
		Actions:         s.machine.Actions(sess),
		VariableOptions: s.machine.Schema().VariableOptions(sess.Category),
	}
}

// record appends a session event. History is best effort: a failed append is
// logged and does not undo the transition.
func (s *ConfiguratorService) record(ctx context.Context, sess models.Session, typ, msg string, meta map[string]any) {
	err := s.eventRepo.Append(ctx, models.SessionEvent{
		EventID:     uuid.NewString(),
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		OccurredAt:  s.now(),
		Type:        typ,
		Description: msg,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Errorw("session_event_append_failed", "session_id", sess.ID, "type", typ, "err", err)
	}
}

func transitionMeta(prev, next models.Session) map[string]any {
	return map[string]any{
		"step_from":      prev.Step,
		"step_to":        next.Step,
		"category":       next.Category,
		"variable":       next.Variable,
		"scenario_count": len(next.Scenarios),
		"open":           next.Open,
	}
}

// detachedEntries counts sub-form entries a SAVE_CONFIGURATION leaves off
// the stored scenario.
func detachedEntries(prev models.Session, ev wizard.Event) int {
	if ev.Action() != wizard.ActionSaveConfiguration {
		return 0
	}
	switch wizard.LayoutFor(prev) {
	case wizard.LayoutShutdown:
		return len(prev.Shutdown.Entries)
	case wizard.LayoutDemand:
		return len(prev.Demand.Entries)
	}
	return 0
}

func describe(ev wizard.Event) string {
	switch e := ev.(type) {
	case wizard.SelectFacility:
		return "Facility set to " + e.Facility
	case wizard.SelectCategory:
		return "Category set to " + e.Category
	case wizard.SelectVariable:
		return "Variable set to " + e.Variable
	case wizard.SetParameter:
		return fmt.Sprintf("Parameter %s set to %g", e.Key, e.Value)
	case wizard.RemoveScenario:
		return "Scenario " + e.ID + " removed"
	case wizard.Apply:
		return "Scenario list applied"
	case wizard.Cancel:
		return "Configurator cancelled"
	}
	return string(ev.Action())
}
