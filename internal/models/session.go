package models

import "time"

// Step is the wizard state.
type Step string

const (
	StepSelection           Step = "SELECTION"
	StepParameterAdjustment Step = "PARAMETER_ADJUSTMENT"
)

// ShutdownForm holds the Planned Shutdown sub-form: the fields being edited
// and the entries added so far.
type ShutdownForm struct {
	Plant     string           `json:"plant"`
	StartDate *time.Time       `json:"start_date"`
	EndDate   *time.Time       `json:"end_date"`
	Days      int              `json:"days"`
	Entries   []ShutdownConfig `json:"entries"`
}

// DemandForm holds the Peak Demand sub-form.
type DemandForm struct {
	StartDate *time.Time        `json:"start_date"`
	EndDate   *time.Time        `json:"end_date"`
	Percent   int               `json:"percent"`
	Entries   []MonthAllocation `json:"entries"`
}

// Session is the whole configurator state for one modal instance.
type Session struct {
	ID         string               `json:"id"`
	UserID     int                  `json:"user_id"`
	Open       bool                 `json:"open"`
	Step       Step                 `json:"step"`
	Facility   string               `json:"facility"`
	Category   string               `json:"category"`
	Variable   string               `json:"variable"`
	Parameters map[string]float64   `json:"parameters,omitempty"`
	Scenarios  []ConfiguredScenario `json:"scenarios"`
	Shutdown   ShutdownForm         `json:"shutdown"`
	Demand     DemandForm           `json:"demand"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// SessionEvent is a single audit log entry for a session.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id"`
	UserID      int       `json:"user_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // wizard action, or OPENED | EXPIRED | CLOSED | SUBFORM_DETACHED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
