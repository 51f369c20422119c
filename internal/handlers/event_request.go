package handlers

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"supply_sandbox/internal/wizard"
)

// EventRequest is the wire form of a configurator event. Which fields are
// read depends on Type.
type EventRequest struct {
	// Action name, e.g. SELECT_VARIABLE, SET_PARAMETER, APPLY
	Type string `json:"type" binding:"required" example:"SET_PARAMETER"`
	// Facility, category, variable, plant or scenario id
	Value string `json:"value,omitempty" example:"Capacity Adjustment"`
	// Knob key for SET_PARAMETER
	Key string `json:"key,omitempty" example:"changePercent"`
	// Knob value, shutdown days or demand percent
	Number *float64 `json:"number,omitempty" example:"25"`
	// Entry index for REMOVE_SHUTDOWN / REMOVE_ALLOCATION
	Index *int `json:"index,omitempty" example:"0"`
	// Range start (RFC3339 or YYYY-MM-DD); empty clears
	Start string `json:"start,omitempty" example:"2025-06-01"`
	// Range end (RFC3339 or YYYY-MM-DD); empty clears
	End string `json:"end,omitempty" example:"2025-06-14"`
}

var errUnknownEventType = errors.New("unknown event type")

// toEvent maps the request onto a wizard event. It only rejects requests a
// client could never have built from the controls; guard checks are left to
// the machine.
func (r EventRequest) toEvent() (wizard.Event, error) {
	switch wizard.Action(strings.ToUpper(strings.TrimSpace(r.Type))) {
	case wizard.ActionOpen:
		return wizard.Open{}, nil
	case wizard.ActionSelectFacility:
		return wizard.SelectFacility{Facility: r.Value}, nil
	case wizard.ActionSelectCategory:
		return wizard.SelectCategory{Category: r.Value}, nil
	case wizard.ActionSelectVariable:
		return wizard.SelectVariable{Variable: r.Value}, nil
	case wizard.ActionAddAndConfigure:
		return wizard.AddAndConfigure{}, nil
	case wizard.ActionSetParameter:
		if r.Key == "" {
			return nil, errors.New("SET_PARAMETER requires key")
		}
		n, err := r.number()
		if err != nil {
			return nil, err
		}
		return wizard.SetParameter{Key: r.Key, Value: n}, nil
	case wizard.ActionSetShutdownPlant:
		return wizard.SetShutdownPlant{Plant: r.Value}, nil
	case wizard.ActionSetShutdownDays:
		n, err := r.number()
		if err != nil {
			return nil, err
		}
		return wizard.SetShutdownDays{Days: roundInt(n)}, nil
	case wizard.ActionSetShutdownRange:
		start, end, err := r.dateRange()
		if err != nil {
			return nil, err
		}
		return wizard.SetShutdownRange{Start: start, End: end}, nil
	case wizard.ActionAddShutdown:
		return wizard.AddShutdown{}, nil
	case wizard.ActionRemoveShutdown:
		i, err := r.index()
		if err != nil {
			return nil, err
		}
		return wizard.RemoveShutdown{Index: i}, nil
	case wizard.ActionSetDemandRange:
		start, end, err := r.dateRange()
		if err != nil {
			return nil, err
		}
		return wizard.SetDemandRange{Start: start, End: end}, nil
	case wizard.ActionSetDemandPercent:
		n, err := r.number()
		if err != nil {
			return nil, err
		}
		return wizard.SetDemandPercent{Percent: roundInt(n)}, nil
	case wizard.ActionAddAllocation:
		return wizard.AddAllocation{}, nil
	case wizard.ActionRemoveAllocation:
		i, err := r.index()
		if err != nil {
			return nil, err
		}
		return wizard.RemoveAllocation{Index: i}, nil
	case wizard.ActionSaveConfiguration:
		return wizard.SaveConfiguration{}, nil
	case wizard.ActionBack:
		return wizard.Back{}, nil
	case wizard.ActionRemoveScenario:
		if r.Value == "" {
			return nil, errors.New("REMOVE_SCENARIO requires value (scenario id)")
		}
		return wizard.RemoveScenario{ID: r.Value}, nil
	case wizard.ActionClearAll:
		return wizard.ClearAll{}, nil
	case wizard.ActionApply:
		return wizard.Apply{}, nil
	case wizard.ActionCancel:
		return wizard.Cancel{}, nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownEventType, r.Type)
}

func (r EventRequest) number() (float64, error) {
	if r.Number == nil {
		return 0, fmt.Errorf("%s requires number", r.Type)
	}
	if math.IsNaN(*r.Number) || math.IsInf(*r.Number, 0) {
		return 0, fmt.Errorf("%s number must be finite", r.Type)
	}
	return *r.Number, nil
}

// roundInt rounds n and saturates it to the int32 range so huge inputs keep
// their sign for the machine's clamp.
func roundInt(n float64) int {
	n = math.Round(n)
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int(n)
}

func (r EventRequest) index() (int, error) {
	if r.Index == nil {
		return 0, fmt.Errorf("%s requires index", r.Type)
	}
	return *r.Index, nil
}

func (r EventRequest) dateRange() (start, end *time.Time, err error) {
	if start, err = parseOptionalDate(r.Start); err != nil {
		return nil, nil, fmt.Errorf("start: %w", err)
	}
	if end, err = parseOptionalDate(r.End); err != nil {
		return nil, nil, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}
