package wizard

import "time"

// Action names a user-triggerable control of the configurator.
type Action string

const (
	ActionOpen              Action = "OPEN"
	ActionSelectFacility    Action = "SELECT_FACILITY"
	ActionSelectCategory    Action = "SELECT_CATEGORY"
	ActionSelectVariable    Action = "SELECT_VARIABLE"
	ActionAddAndConfigure   Action = "ADD_AND_CONFIGURE"
	ActionSetParameter      Action = "SET_PARAMETER"
	ActionSetShutdownPlant  Action = "SET_SHUTDOWN_PLANT"
	ActionSetShutdownDays   Action = "SET_SHUTDOWN_DAYS"
	ActionSetShutdownRange  Action = "SET_SHUTDOWN_RANGE"
	ActionAddShutdown       Action = "ADD_SHUTDOWN"
	ActionRemoveShutdown    Action = "REMOVE_SHUTDOWN"
	ActionSetDemandRange    Action = "SET_DEMAND_RANGE"
	ActionSetDemandPercent  Action = "SET_DEMAND_PERCENT"
	ActionAddAllocation     Action = "ADD_ALLOCATION"
	ActionRemoveAllocation  Action = "REMOVE_ALLOCATION"
	ActionSaveConfiguration Action = "SAVE_CONFIGURATION"
	ActionBack              Action = "BACK"
	ActionRemoveScenario    Action = "REMOVE_SCENARIO"
	ActionClearAll          Action = "CLEAR_ALL"
	ActionApply             Action = "APPLY"
	ActionCancel            Action = "CANCEL"
)

// Event is a discrete user input fed to Machine.Reduce.
type Event interface {
	Action() Action
}

type (
	Open            struct{}
	SelectFacility  struct{ Facility string }
	SelectCategory  struct{ Category string }
	SelectVariable  struct{ Variable string }
	AddAndConfigure struct{}

	SetParameter struct {
		Key   string
		Value float64
	}

	SetShutdownPlant struct{ Plant string }
	SetShutdownDays  struct{ Days int }
	SetShutdownRange struct{ Start, End *time.Time }
	AddShutdown      struct{}
	RemoveShutdown   struct{ Index int }

	SetDemandRange   struct{ Start, End *time.Time }
	SetDemandPercent struct{ Percent int }
	AddAllocation    struct{}
	RemoveAllocation struct{ Index int }

	SaveConfiguration struct{}
	Back              struct{}
	RemoveScenario    struct{ ID string }
	ClearAll          struct{}
	Apply             struct{}
	Cancel            struct{}
)

func (Open) Action() Action              { return ActionOpen }
func (SelectFacility) Action() Action    { return ActionSelectFacility }
func (SelectCategory) Action() Action    { return ActionSelectCategory }
func (SelectVariable) Action() Action    { return ActionSelectVariable }
func (AddAndConfigure) Action() Action   { return ActionAddAndConfigure }
func (SetParameter) Action() Action      { return ActionSetParameter }
func (SetShutdownPlant) Action() Action  { return ActionSetShutdownPlant }
func (SetShutdownDays) Action() Action   { return ActionSetShutdownDays }
func (SetShutdownRange) Action() Action  { return ActionSetShutdownRange }
func (AddShutdown) Action() Action       { return ActionAddShutdown }
func (RemoveShutdown) Action() Action    { return ActionRemoveShutdown }
func (SetDemandRange) Action() Action    { return ActionSetDemandRange }
func (SetDemandPercent) Action() Action  { return ActionSetDemandPercent }
func (AddAllocation) Action() Action     { return ActionAddAllocation }
func (RemoveAllocation) Action() Action  { return ActionRemoveAllocation }
func (SaveConfiguration) Action() Action { return ActionSaveConfiguration }
func (Back) Action() Action              { return ActionBack }
func (RemoveScenario) Action() Action    { return ActionRemoveScenario }
func (ClearAll) Action() Action          { return ActionClearAll }
func (Apply) Action() Action             { return ActionApply }
func (Cancel) Action() Action            { return ActionCancel }
