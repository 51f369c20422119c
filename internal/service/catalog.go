package service

import "supply_sandbox/internal/wizard"

// Bounds describes an integer sub-form control.
type Bounds struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default_value"`
}

// CatalogView is everything a client needs to render the configurator.
type CatalogView struct {
	Categories     []wizard.Category `json:"categories"`
	Facilities     []string          `json:"facilities"`
	Plants         []string          `json:"plants"`
	Sentinel       string            `json:"sentinel"`
	ShutdownDays   Bounds            `json:"shutdown_days"`
	DemandPercent  Bounds            `json:"demand_percent"`
	DefaultOptions map[string]string `json:"defaults"`
}

type CatalogService struct {
	view CatalogView
}

// NewCatalogService snapshots schema once; the table is static at runtime.
func NewCatalogService(schema *wizard.Schema) *CatalogService {
	return &CatalogService{view: CatalogView{
		Categories:    schema.Categories,
		Facilities:    schema.Facilities,
		Plants:        schema.Plants,
		Sentinel:      wizard.SelectSentinel,
		ShutdownDays:  Bounds{Min: wizard.MinShutdownDays, Max: wizard.MaxShutdownDays, Default: wizard.DefaultShutdownDays},
		DemandPercent: Bounds{Min: wizard.MinDemandPercent, Max: wizard.MaxDemandPercent, Default: wizard.DefaultDemandPercent},
		DefaultOptions: map[string]string{
			"facility": wizard.DefaultFacility,
			"category": wizard.DefaultCategory,
			"variable": wizard.SelectSentinel,
		},
	}}
}

func (s *CatalogService) Catalog() CatalogView { return s.view }
