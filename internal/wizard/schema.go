package wizard

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Option values the configurator starts from.
const (
	SelectSentinel  = "Select..."
	AllFacilities   = "All Facilities"
	DefaultFacility = "Phoenix, AZ"
	DefaultCategory = CategoryProduction
)

// Category names.
const (
	CategoryProduction    = "Production & Manufacturing"
	CategoryDemand        = "Demand & Customer Fulfillment"
	CategoryTransport     = "Transportation & Logistics"
	CategorySupplier      = "Supplier & Procurement"
	CategoryWarehousing   = "Inventory & Warehousing"
	CategoryMarketFactors = "External & Market Factors"
)

// Variables with a bespoke sub-form, plus the one used by most examples.
const (
	VariableCapacityAdjustment = "Capacity Adjustment"
	VariablePlannedShutdown    = "Planned Shutdown"
	VariablePeakDemand         = "Peak Demand"
)

// Knob is one tunable parameter of a disruption variable.
type Knob struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Unit    string  `json:"unit"`
	Default float64 `json:"default_value"`
}

// Variable is a disruption type inside a category.
type Variable struct {
	Name  string `json:"name"`
	Knobs []Knob `json:"knobs"`
}

// Category groups variables. Disabled categories are listed as "coming soon"
// and cannot be selected.
type Category struct {
	Name      string     `json:"name"`
	Enabled   bool       `json:"enabled"`
	Variables []Variable `json:"variables,omitempty"`
}

// Schema is the lookup table behind the configurator.
type Schema struct {
	Categories []Category `json:"categories"`
	Facilities []string   `json:"facilities"`
	Plants     []string   `json:"plants"`
}

// DefaultSchema returns the sandbox parameter table.
func DefaultSchema() *Schema {
	plants := []string{"Phoenix, AZ", "Houston, TX", "Atlanta, GA", "Chicago, IL", "Reno, NV"}
	return &Schema{
		Facilities: append([]string{AllFacilities}, plants...),
		Plants:     plants,
		Categories: []Category{
			{
				Name:    CategoryProduction,
				Enabled: true,
				Variables: []Variable{
					{Name: VariableCapacityAdjustment, Knobs: []Knob{
						{Key: "changePercent", Label: "Capacity Change", Min: -50, Max: 50, Step: 5, Unit: "%", Default: 0},
					}},
					{Name: VariablePlannedShutdown, Knobs: []Knob{
						{Key: "durationDays", Label: "Shutdown Duration", Min: 1, Max: 30, Step: 1, Unit: " days", Default: 7},
						{Key: "capacityLossPercent", Label: "Capacity Loss", Min: 0, Max: 100, Step: 10, Unit: "%", Default: 100},
					}},
					{Name: "Production Cost Change", Knobs: []Knob{
						{Key: "costChangePercent", Label: "Cost Change", Min: -30, Max: 50, Step: 5, Unit: "%", Default: 10},
					}},
					{Name: "Yield Rate", Knobs: []Knob{
						{Key: "yieldPercent", Label: "Yield", Min: 50, Max: 100, Step: 1, Unit: "%", Default: 95},
					}},
				},
			},
			{
				Name:    CategoryDemand,
				Enabled: true,
				Variables: []Variable{
					{Name: VariablePeakDemand, Knobs: []Knob{
						{Key: "increasePercent", Label: "Demand Increase", Min: 5, Max: 100, Step: 5, Unit: "%", Default: 20},
					}},
					{Name: "Demand Decline", Knobs: []Knob{
						{Key: "decreasePercent", Label: "Demand Decrease", Min: 5, Max: 80, Step: 5, Unit: "%", Default: 15},
					}},
					{Name: "Order Lead Time", Knobs: []Knob{
						{Key: "leadTimeDays", Label: "Lead Time", Min: 1, Max: 60, Step: 1, Unit: " days", Default: 14},
					}},
				},
			},
			{Name: CategoryTransport},
			{Name: CategorySupplier},
			{Name: CategoryWarehousing},
			{Name: CategoryMarketFactors},
		},
	}
}

// Validate checks the table: every enabled category has variables, every
// variable has knobs, and each knob satisfies min <= default <= max with a
// positive step.
func (s *Schema) Validate() error {
	if len(s.Facilities) == 0 {
		return errors.New("schema: no facilities")
	}
	seenCat := make(map[string]bool, len(s.Categories))
	for _, c := range s.Categories {
		if seenCat[c.Name] {
			return fmt.Errorf("schema: duplicate category %q", c.Name)
		}
		seenCat[c.Name] = true
		if !c.Enabled {
			continue
		}
		if len(c.Variables) == 0 {
			return fmt.Errorf("schema: enabled category %q has no variables", c.Name)
		}
		seenVar := make(map[string]bool, len(c.Variables))
		for _, v := range c.Variables {
			if v.Name == SelectSentinel || seenVar[v.Name] {
				return fmt.Errorf("schema: bad variable name %q in %q", v.Name, c.Name)
			}
			seenVar[v.Name] = true
			if len(v.Knobs) == 0 {
				return fmt.Errorf("schema: %s/%s has no knobs", c.Name, v.Name)
			}
			seenKey := make(map[string]bool, len(v.Knobs))
			for _, k := range v.Knobs {
				if seenKey[k.Key] {
					return fmt.Errorf("schema: duplicate knob %q in %s/%s", k.Key, c.Name, v.Name)
				}
				seenKey[k.Key] = true
				if k.Step <= 0 || k.Min > k.Default || k.Default > k.Max {
					return fmt.Errorf("schema: knob %s/%s/%s out of bounds", c.Name, v.Name, k.Key)
				}
			}
		}
	}
	return nil
}

// Category looks up a category by name.
func (s *Schema) Category(name string) (Category, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Knobs returns the knobs of an enabled category's variable.
func (s *Schema) Knobs(category, variable string) ([]Knob, bool) {
	c, ok := s.Category(category)
	if !ok || !c.Enabled {
		return nil, false
	}
	for _, v := range c.Variables {
		if v.Name == variable {
			return v.Knobs, true
		}
	}
	return nil, false
}

// VariableOptions lists the variables selectable under category, sentinel
// first. A disabled or unknown category only offers the sentinel.
func (s *Schema) VariableOptions(category string) []string {
	out := []string{SelectSentinel}
	c, ok := s.Category(category)
	if !ok || !c.Enabled {
		return out
	}
	for _, v := range c.Variables {
		out = append(out, v.Name)
	}
	return out
}

func (s *Schema) hasFacility(f string) bool { return contains(s.Facilities, f) }
func (s *Schema) hasPlant(p string) bool    { return contains(s.Plants, p) }

// Defaults builds the initial parameter map for a set of knobs.
func Defaults(knobs []Knob) map[string]float64 {
	out := make(map[string]float64, len(knobs))
	for _, k := range knobs {
		out[k.Key] = k.Default
	}
	return out
}

// Clamp maps an arbitrary value onto the knob's range the way a range input
// does: clamp to [min,max] and round to the nearest step counted from min.
// If rounding lands past max (step does not divide the range) it drops a step.
func (k Knob) Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return k.Default
	case math.IsInf(v, -1):
		return k.Min
	case math.IsInf(v, 1):
		v = k.Max
	}

	lo := decimal.NewFromFloat(k.Min)
	hi := decimal.NewFromFloat(k.Max)
	x := decimal.NewFromFloat(v)
	if x.LessThanOrEqual(lo) {
		return k.Min
	}
	if x.GreaterThan(hi) {
		x = hi
	}
	if k.Step > 0 {
		step := decimal.NewFromFloat(k.Step)
		n := x.Sub(lo).Div(step).Round(0)
		x = lo.Add(n.Mul(step))
		if x.GreaterThan(hi) {
			x = x.Sub(step)
		}
	}
	f, _ := x.Float64()
	return f
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
