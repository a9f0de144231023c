package models

// DepthSource records where DiveContext.AvgDepth came from.
type DepthSource string

const (
	DepthSourceLogged    DepthSource = "logged"
	DepthSourceEstimated DepthSource = "estimated"
	DepthSourceUnknown   DepthSource = "unknown"
)

// DiveContext is the normalized, read-only view of a single logged dive.
// Optional values are nil when absent; strings are never empty.
// Depths are meters, temperatures °C, pressures bar, durations minutes, cylinder size liters.
type DiveContext struct {
	ID              string      `json:"id"`
	Date            *string     `json:"date"`
	LocationName    *string     `json:"location_name"`
	LocationCountry *string     `json:"location_country"`
	MaxDepth        *float64    `json:"max_depth"`
	AvgDepth        *float64    `json:"avg_depth"`
	AvgDepthSource  DepthSource `json:"avg_depth_source"`
	Duration        *float64    `json:"duration"`
	WaterTemp       *float64    `json:"water_temp"`
	Visibility      *Visibility `json:"visibility"`
	DiveType        *DiveType   `json:"dive_type"`
	WaterType       *WaterType  `json:"water_type"`
	Exposure        *Exposure   `json:"exposure"`
	Currents        *Current    `json:"currents"`
	Gas             *GasMix     `json:"gas"`
	StartPressure   *float64    `json:"start_pressure"`
	EndPressure     *float64    `json:"end_pressure"`
	GasUsed         *float64    `json:"gas_used"`
	CylinderType    *string     `json:"cylinder_type"`
	CylinderSize    *float64    `json:"cylinder_size"`
	Notes           *string     `json:"notes"`
	Equipment       []string    `json:"equipment"`
	Wildlife        []string    `json:"wildlife"`
}

// DiverProfile is the normalized historical baseline of a diver.
type DiverProfile struct {
	CertificationLevel *Certification `json:"certification_level"`
	TotalDives         *int           `json:"total_dives"`
	AvgDepth           *float64       `json:"avg_depth"`
	AvgDuration        *float64       `json:"avg_duration"`
	RecentDiveCount    *int           `json:"recent_dive_count"`
	AvgRMV             *float64       `json:"avg_rmv"`
}
