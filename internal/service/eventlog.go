package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supply_sandbox/internal/models"
	"supply_sandbox/internal/repository"
)

// MaxLogLimit bounds LogFilter.Limit.
const MaxLogLimit = 1000

// LogFilter narrows a user's session history. Zero values mean no bound.
type LogFilter struct {
	UserID    int
	SessionID string
	From      time.Time // inclusive
	To        time.Time // inclusive
	Type      string    // e.g. "OPENED", "SAVE_CONFIGURATION", "APPLY", "EXPIRED"
	Limit     int
}

// FilterError reports a LogFilter that cannot be run.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string { return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason) }

// IsFilterError reports whether err came from filter validation rather than storage.
func IsFilterError(err error) bool {
	var fe *FilterError
	return errors.As(err, &fe)
}

// query validates f and converts it for the repository. Times come out in UTC
// and the type upper-cased.
func (f LogFilter) query() (repository.EventFilter, error) {
	if f.UserID <= 0 {
		return repository.EventFilter{}, &FilterError{Field: "user", Reason: "listing must be scoped to a user"}
	}
	if f.Limit < 0 || f.Limit > MaxLogLimit {
		return repository.EventFilter{}, &FilterError{Field: "limit", Reason: fmt.Sprintf("must be between 0 and %d", MaxLogLimit)}
	}
	q := repository.EventFilter{
		UserID:    f.UserID,
		SessionID: strings.TrimSpace(f.SessionID),
		Type:      strings.ToUpper(strings.TrimSpace(f.Type)),
		Limit:     f.Limit,
	}
	if !f.From.IsZero() {
		q.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		q.To = f.To.UTC()
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.EventFilter{}, &FilterError{Field: "range", Reason: "from must not be after to"}
	}
	return q, nil
}

// EventLogService serves the append-only session history.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, q)
}
