package models

import "time"

// ConfiguredScenario is one disruption the user finished configuring.
type ConfiguredScenario struct {
	ID         string             `json:"id"`
	Facility   string             `json:"facility"`
	Category   string             `json:"category"`
	Variable   string             `json:"variable"`
	Parameters map[string]float64 `json:"parameters"`
}

// ShutdownConfig is a Planned Shutdown sub-form entry.
type ShutdownConfig struct {
	Plant     string    `json:"plant"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days"` // 1..30
}

// MonthAllocation is a Peak Demand sub-form entry.
type MonthAllocation struct {
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	DemandPercent int       `json:"demand_percent"` // 5..100
}

// SandboxRun is a scenario list handed off to the sandbox by apply.
type SandboxRun struct {
	ID        string               `json:"id"`
	UserID    int                  `json:"user_id"`
	SessionID string               `json:"session_id"`
	Scenarios []ConfiguredScenario `json:"scenarios"`
	CreatedAt time.Time            `json:"created_at"`
}

// SimulationResults is what the sandbox results view consumes.
// It is produced outside this service.
type SimulationResults struct {
	ScenarioType     string   `json:"scenario_type"`
	CostBefore       float64  `json:"cost_before"`
	CostAfter        float64  `json:"cost_after"`
	Opportunities    []string `json:"opportunities"`
	Risks            []string `json:"risks"`
	BestMonth        string   `json:"best_month,omitempty"`
	PlantsAtCapacity []string `json:"plants_at_capacity,omitempty"`
}
