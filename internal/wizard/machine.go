// Package wizard implements the sandbox scenario configurator as a pure state
// machine. Reduce maps (session, event) to a new session. Guarded actions that
// are not currently enabled leave the session untouched; they never error.
package wizard

import (
	"strconv"
	"time"

	"supply_sandbox/internal/models"
)

// Sub-form bounds and reset values.
const (
	MinShutdownDays     = 1
	MaxShutdownDays     = 30
	DefaultShutdownDays = 30

	MinDemandPercent     = 5
	MaxDemandPercent     = 100
	DefaultDemandPercent = 50
)

const maxIDAttempts = 8

// Layout is the parameter-adjustment form rendered for a variable.
type Layout string

const (
	LayoutNone     Layout = ""
	LayoutSliders  Layout = "sliders"
	LayoutShutdown Layout = "shutdown"
	LayoutDemand   Layout = "demand"
)

// LayoutFor reports which form a session currently shows.
func LayoutFor(s models.Session) Layout {
	if s.Step != models.StepParameterAdjustment {
		return LayoutNone
	}
	switch s.Variable {
	case VariablePlannedShutdown:
		return LayoutShutdown
	case VariablePeakDemand:
		return LayoutDemand
	default:
		return LayoutSliders
	}
}

// Result is the outcome of one Reduce call.
type Result struct {
	Session models.Session
	// Accepted is false when the event's control was disabled or its value
	// was not one the control could produce; Session is then unchanged.
	Accepted bool
	// Applied holds the handed-off scenario list after an accepted APPLY.
	Applied []models.ConfiguredScenario
}

// Machine evaluates configurator transitions against a schema.
type Machine struct {
	schema *Schema
	newID  func() string
}

// NewMachine builds a machine. newID mints opaque scenario ids.
func NewMachine(schema *Schema, newID func() string) *Machine {
	return &Machine{schema: schema, newID: newID}
}

// Schema returns the table the machine was built with.
func (m *Machine) Schema() *Schema { return m.schema }

// NewSession returns an open session in the initial Selection state.
func (m *Machine) NewSession(id string, userID int, now time.Time) models.Session {
	return models.Session{
		ID:        id,
		UserID:    userID,
		Open:      true,
		Step:      models.StepSelection,
		Facility:  DefaultFacility,
		Category:  DefaultCategory,
		Variable:  SelectSentinel,
		Scenarios: []models.ConfiguredScenario{},
		Shutdown:  newShutdownForm(),
		Demand:    newDemandForm(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Actions lists the controls enabled in s, in display order.
func (m *Machine) Actions(s models.Session) []Action {
	if !s.Open {
		return []Action{ActionOpen}
	}
	if s.Step != models.StepParameterAdjustment {
		out := []Action{ActionSelectFacility, ActionSelectCategory, ActionSelectVariable}
		if _, ok := m.schema.Knobs(s.Category, s.Variable); ok {
			out = append(out, ActionAddAndConfigure)
		}
		out = append(out, ActionRemoveScenario, ActionClearAll)
		if len(s.Scenarios) > 0 {
			out = append(out, ActionApply)
		}
		return append(out, ActionCancel)
	}

	var out []Action
	switch LayoutFor(s) {
	case LayoutShutdown:
		out = append(out, ActionSetShutdownPlant, ActionSetShutdownDays, ActionSetShutdownRange)
		if shutdownReady(s.Shutdown) {
			out = append(out, ActionAddShutdown)
		}
		if len(s.Shutdown.Entries) > 0 {
			out = append(out, ActionRemoveShutdown)
		}
	case LayoutDemand:
		out = append(out, ActionSetDemandRange, ActionSetDemandPercent)
		if s.Demand.StartDate != nil && s.Demand.EndDate != nil {
			out = append(out, ActionAddAllocation)
		}
		if len(s.Demand.Entries) > 0 {
			out = append(out, ActionRemoveAllocation)
		}
	default:
		out = append(out, ActionSetParameter)
	}
	return append(out, ActionSaveConfiguration, ActionBack, ActionCancel)
}

// Enabled reports whether action a is reachable from s.
func (m *Machine) Enabled(s models.Session, a Action) bool {
	for _, x := range m.Actions(s) {
		if x == a {
			return true
		}
	}
	return false
}

// Reduce applies ev to s. s is never mutated.
func (m *Machine) Reduce(s models.Session, ev Event) Result {
	rejected := Result{Session: s}
	if ev == nil || !m.Enabled(s, ev.Action()) {
		return rejected
	}

	next := cloneSession(s)
	var applied []models.ConfiguredScenario

	switch e := ev.(type) {
	case Open:
		next.Open = true

	case SelectFacility:
		if !m.schema.hasFacility(e.Facility) {
			return rejected
		}
		next.Facility = e.Facility

	case SelectCategory:
		c, ok := m.schema.Category(e.Category)
		if !ok || !c.Enabled {
			return rejected
		}
		next.Category = c.Name
		next.Variable = SelectSentinel

	case SelectVariable:
		if !contains(m.schema.VariableOptions(next.Category), e.Variable) {
			return rejected
		}
		next.Variable = e.Variable

	case AddAndConfigure:
		knobs, _ := m.schema.Knobs(next.Category, next.Variable)
		next.Step = models.StepParameterAdjustment
		next.Parameters = Defaults(knobs)

	case SetParameter:
		knobs, _ := m.schema.Knobs(next.Category, next.Variable)
		k, ok := findKnob(knobs, e.Key)
		if !ok {
			return rejected
		}
		if next.Parameters == nil {
			next.Parameters = Defaults(knobs)
		}
		next.Parameters[k.Key] = k.Clamp(e.Value)

	case SetShutdownPlant:
		if e.Plant != "" && !m.schema.hasPlant(e.Plant) {
			return rejected
		}
		next.Shutdown.Plant = e.Plant

	case SetShutdownDays:
		next.Shutdown.Days = clampInt(e.Days, MinShutdownDays, MaxShutdownDays)

	case SetShutdownRange:
		next.Shutdown.StartDate = copyTime(e.Start)
		next.Shutdown.EndDate = copyTime(e.End)

	case AddShutdown:
		f := next.Shutdown
		next.Shutdown = newShutdownForm()
		next.Shutdown.Entries = append(f.Entries, models.ShutdownConfig{
			Plant:     f.Plant,
			StartDate: *f.StartDate,
			EndDate:   *f.EndDate,
			Days:      f.Days,
		})

	case RemoveShutdown:
		if e.Index < 0 || e.Index >= len(next.Shutdown.Entries) {
			return rejected
		}
		next.Shutdown.Entries = append(next.Shutdown.Entries[:e.Index], next.Shutdown.Entries[e.Index+1:]...)

	case SetDemandRange:
		next.Demand.StartDate = copyTime(e.Start)
		next.Demand.EndDate = copyTime(e.End)

	case SetDemandPercent:
		next.Demand.Percent = clampInt(e.Percent, MinDemandPercent, MaxDemandPercent)

	case AddAllocation:
		f := next.Demand
		next.Demand = newDemandForm()
		next.Demand.Entries = append(f.Entries, models.MonthAllocation{
			StartDate:     *f.StartDate,
			EndDate:       *f.EndDate,
			DemandPercent: f.Percent,
		})

	case RemoveAllocation:
		if e.Index < 0 || e.Index >= len(next.Demand.Entries) {
			return rejected
		}
		next.Demand.Entries = append(next.Demand.Entries[:e.Index], next.Demand.Entries[e.Index+1:]...)

	case SaveConfiguration:
		// Only the slider snapshot is stored; sub-form entries stay on the
		// session and are not attached to the scenario.
		next.Scenarios = append(next.Scenarios, models.ConfiguredScenario{
			ID:         m.freshID(next.Scenarios),
			Facility:   next.Facility,
			Category:   next.Category,
			Variable:   next.Variable,
			Parameters: next.Parameters,
		})
		next.Step = models.StepSelection
		next.Variable = SelectSentinel
		next.Parameters = nil

	case Back:
		next.Step = models.StepSelection
		next.Parameters = nil
		next.Shutdown = newShutdownForm()
		next.Demand = newDemandForm()

	case RemoveScenario:
		kept := next.Scenarios[:0]
		for _, sc := range next.Scenarios {
			if sc.ID != e.ID {
				kept = append(kept, sc)
			}
		}
		next.Scenarios = kept

	case ClearAll:
		next.Scenarios = []models.ConfiguredScenario{}

	case Apply:
		applied = next.Scenarios
		resetWizard(&next)
		next.Scenarios = []models.ConfiguredScenario{}
		next.Open = false

	case Cancel:
		resetWizard(&next)
		next.Open = false

	default:
		return rejected
	}

	return Result{Session: next, Accepted: true, Applied: applied}
}

// freshID returns an id not used by any scenario in existing.
func (m *Machine) freshID(existing []models.ConfiguredScenario) string {
	var id string
	for i := 0; i < maxIDAttempts; i++ {
		id = m.newID()
		if id != "" && !hasScenario(existing, id) {
			return id
		}
	}
	for n := len(existing) + 1; ; n++ {
		cand := id + "-" + strconv.Itoa(n)
		if !hasScenario(existing, cand) {
			return cand
		}
	}
}

func resetWizard(s *models.Session) {
	s.Step = models.StepSelection
	s.Variable = SelectSentinel
	s.Parameters = nil
	s.Shutdown = newShutdownForm()
	s.Demand = newDemandForm()
}

func newShutdownForm() models.ShutdownForm {
	return models.ShutdownForm{Days: DefaultShutdownDays, Entries: []models.ShutdownConfig{}}
}

func newDemandForm() models.DemandForm {
	return models.DemandForm{Percent: DefaultDemandPercent, Entries: []models.MonthAllocation{}}
}

func shutdownReady(f models.ShutdownForm) bool {
	return f.Plant != "" && f.StartDate != nil && f.EndDate != nil
}

func findKnob(knobs []Knob, key string) (Knob, bool) {
	for _, k := range knobs {
		if k.Key == key {
			return k, true
		}
	}
	return Knob{}, false
}

func hasScenario(list []models.ConfiguredScenario, id string) bool {
	for _, sc := range list {
		if sc.ID == id {
			return true
		}
	}
	return false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// cloneSession deep-copies every map, slice and pointer in s.
func cloneSession(s models.Session) models.Session {
	c := s
	if s.Parameters != nil {
		c.Parameters = copyParams(s.Parameters)
	}
	c.Scenarios = make([]models.ConfiguredScenario, len(s.Scenarios))
	for i, sc := range s.Scenarios {
		sc.Parameters = copyParams(sc.Parameters)
		c.Scenarios[i] = sc
	}
	c.Shutdown.StartDate = copyTime(s.Shutdown.StartDate)
	c.Shutdown.EndDate = copyTime(s.Shutdown.EndDate)
	c.Shutdown.Entries = append([]models.ShutdownConfig{}, s.Shutdown.Entries...)
	c.Demand.StartDate = copyTime(s.Demand.StartDate)
	c.Demand.EndDate = copyTime(s.Demand.EndDate)
	c.Demand.Entries = append([]models.MonthAllocation{}, s.Demand.Entries...)
	return c
}

func copyParams(p map[string]float64) map[string]float64 {
	if p == nil {
		return nil
	}
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
