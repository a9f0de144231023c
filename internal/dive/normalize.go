// Package dive turns loosely typed dive and profile payloads into the strict
// models used by the insight pipeline.
package dive

import (
	"errors"
	"strings"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// estimatedAvgDepthRatio approximates a recreational profile's mean depth
// from its maximum.
const estimatedAvgDepthRatio = 0.7

const (
	feetToMeters     = 0.3048
	psiToBar         = 0.0689476
	cubicFeetToLiter = 28.3168
)

var (
	ErrMissingDive   = errors.New("dive payload is required")
	ErrMissingDiveID = errors.New("dive id is required")
)

var (
	idKeys            = []string{"id", "dive_id", "uuid"}
	dateKeys          = []string{"date", "dive_date", "datetime", "started_at", "start_time"}
	locationKeys      = []string{"location_name", "location", "site", "site_name", "dive_site"}
	countryKeys       = []string{"location_country", "country"}
	maxDepthKeys      = []string{"max_depth", "depth", "maximum_depth", "depth_max"}
	avgDepthKeys      = []string{"avg_depth", "average_depth", "mean_depth", "depth_avg"}
	durationKeys      = []string{"duration", "bottom_time", "dive_time", "duration_minutes", "duration_min"}
	waterTempKeys     = []string{"water_temp", "water_temperature", "temperature", "temp"}
	visibilityKeys    = []string{"visibility", "vis"}
	diveTypeKeys      = []string{"dive_type", "type"}
	waterTypeKeys     = []string{"water_type", "water"}
	exposureKeys      = []string{"exposure", "exposure_protection", "suit"}
	currentKeys       = []string{"currents", "current"}
	gasKeys           = []string{"gas", "gas_mix", "gas_type", "breathing_gas"}
	startPressureKeys = []string{"start_pressure", "pressure_start", "starting_pressure"}
	endPressureKeys   = []string{"end_pressure", "pressure_end", "ending_pressure"}
	gasUsedKeys       = []string{"gas_used", "gas_consumed", "air_used", "pressure_used"}
	cylinderTypeKeys  = []string{"cylinder_type", "tank_type", "tank_material"}
	cylinderSizeKeys  = []string{"cylinder_size", "tank_size", "cylinder_volume"}
	ratedPressureKeys = []string{"working_pressure", "rated_pressure", "service_pressure", "cylinder_working_pressure", "tank_working_pressure"}
	notesKeys         = []string{"notes", "note", "comments", "description"}
	equipmentKeys     = []string{"equipment", "gear"}
	wildlifeKeys      = []string{"wildlife", "marine_life", "sightings"}

	depthUnitKeys       = []string{"depth_unit", "depth_units"}
	temperatureUnitKeys = []string{"temperature_unit", "temp_unit", "water_temp_unit"}
	pressureUnitKeys    = []string{"pressure_unit", "pressure_units"}
	cylinderUnitKeys    = []string{"cylinder_size_unit", "tank_size_unit", "cylinder_unit", "volume_unit"}
	unitSystemKeys      = []string{"units", "unit_system"}

	certificationKeys = []string{"certification_level", "certification", "cert_level", "cert"}
	totalDivesKeys    = []string{"total_dives", "dive_count", "logged_dives"}
	profileDepthKeys  = []string{"avg_depth", "average_depth"}
	profileTimeKeys   = []string{"avg_duration", "average_duration", "avg_bottom_time"}
	recentDivesKeys   = []string{"recent_dive_count", "recent_dives"}
	avgRMVKeys        = []string{"avg_rmv", "average_rmv", "avg_sac", "rmv"}
)

// units describes the measurement system a payload was recorded in.
type units struct {
	imperialDepth    bool
	imperialTemp     bool
	imperialPressure bool
	// imperialVolume means cylinder sizes are rated in cubic feet of free
	// gas rather than liters of water capacity.
	imperialVolume   bool
}

func readUnits(r record) units {
	var u units
	if system := r.text(unitSystemKeys...); system != nil && isImperial(*system) {
		u = units{imperialDepth: true, imperialTemp: true, imperialPressure: true, imperialVolume: true}
	}
	if v := r.text(depthUnitKeys...); v != nil {
		u.imperialDepth = oneOf(*v, "ft", "feet", "foot", "imperial")
	}
	if v := r.text(temperatureUnitKeys...); v != nil {
		u.imperialTemp = oneOf(*v, "f", "°f", "fahrenheit", "imperial")
	}
	if v := r.text(pressureUnitKeys...); v != nil {
		u.imperialPressure = oneOf(*v, "psi", "imperial")
	}
	if v := r.text(cylinderUnitKeys...); v != nil {
		u.imperialVolume = oneOf(*v, "cuft", "cu ft", "cu.ft", "ft3", "ft³", "cf", "imperial")
	}
	return u
}

func isImperial(s string) bool { return oneOf(s, "imperial", "us", "ft", "feet") }

func oneOf(s string, options ...string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

func (u units) depth(v *float64) *float64 {
	if u.imperialDepth {
		return scale(v, feetToMeters)
	}
	return v
}

func (u units) temperature(v *float64) *float64 {
	if u.imperialTemp {
		return fahrenheitToCelsius(v)
	}
	return v
}

func (u units) pressure(v *float64) *float64 {
	if u.imperialPressure {
		return scale(v, psiToBar)
	}
	return v
}

// cylinderSize returns the water capacity in liters. A cubic-feet rating
// converts only with the rated working pressure (bar); without it the size
// is unknown.
func (u units) cylinderSize(size, ratedBar *float64) *float64 {
	if !u.imperialVolume || size == nil {
		return size
	}
	if ratedBar == nil || *ratedBar <= 0 {
		return nil
	}
	liters := round1(*size * cubicFeetToLiter / *ratedBar)
	return &liters
}

// NormalizeDive coerces a raw dive payload into a DiveContext. Shape
// mismatches on individual fields become nil; only a nil payload or a
// missing identifier is an error.
func NormalizeDive(raw map[string]any) (models.DiveContext, error) {
	if raw == nil {
		return models.DiveContext{}, ErrMissingDive
	}
	r := newRecord(raw)
	u := readUnits(r)

	var d models.DiveContext
	if v, ok := r.get(idKeys...); ok {
		d.ID = toIdentifier(v)
	}
	if d.ID == "" {
		return models.DiveContext{}, ErrMissingDiveID
	}

	d.Date = normalizeDate(r.text(dateKeys...))
	d.LocationName = r.text(locationKeys...)
	d.LocationCountry = r.text(countryKeys...)
	if loc, ok := r.nested("location"); ok {
		if name := loc.text("name", "site", "title"); name != nil {
			d.LocationName = name
		}
		if country := loc.text("country", "country_name"); country != nil {
			d.LocationCountry = country
		}
	}

	d.MaxDepth = u.depth(r.number(maxDepthKeys...))
	d.AvgDepth, d.AvgDepthSource = averageDepth(u.depth(r.number(avgDepthKeys...)), d.MaxDepth)
	d.Duration = r.number(durationKeys...)
	d.WaterTemp = u.temperature(r.number(waterTempKeys...))

	d.Visibility = parseEnum(r, models.ParseVisibility, visibilityKeys...)
	d.DiveType = parseEnum(r, models.ParseDiveType, diveTypeKeys...)
	d.WaterType = parseEnum(r, models.ParseWaterType, waterTypeKeys...)
	d.Exposure = parseEnum(r, models.ParseExposure, exposureKeys...)
	d.Currents = parseEnum(r, models.ParseCurrent, currentKeys...)
	d.Gas = parseEnum(r, models.ParseGasMix, gasKeys...)

	d.StartPressure = u.pressure(r.number(startPressureKeys...))
	d.EndPressure = u.pressure(r.number(endPressureKeys...))
	d.GasUsed = u.pressure(r.number(gasUsedKeys...))
	if d.GasUsed == nil {
		d.GasUsed = pressureDrop(d.StartPressure, d.EndPressure)
	}
	d.CylinderType = r.text(cylinderTypeKeys...)
	d.CylinderSize = u.cylinderSize(r.number(cylinderSizeKeys...), u.pressure(r.number(ratedPressureKeys...)))

	d.Notes = r.text(notesKeys...)
	d.Equipment = r.list(equipmentKeys...)
	d.Wildlife = r.list(wildlifeKeys...)
	return d, nil
}

// NormalizeProfile coerces an optional profile payload. A nil payload yields
// an all-nil profile.
func NormalizeProfile(raw map[string]any) models.DiverProfile {
	if raw == nil {
		return models.DiverProfile{}
	}
	r := newRecord(raw)
	u := readUnits(r)
	return models.DiverProfile{
		CertificationLevel: parseEnum(r, models.ParseCertification, certificationKeys...),
		TotalDives:         r.count(totalDivesKeys...),
		AvgDepth:           u.depth(r.number(profileDepthKeys...)),
		AvgDuration:        r.number(profileTimeKeys...),
		RecentDiveCount:    r.count(recentDivesKeys...),
		AvgRMV:             r.number(avgRMVKeys...),
	}
}

func averageDepth(logged, maxDepth *float64) (*float64, models.DepthSource) {
	if logged != nil {
		return logged, models.DepthSourceLogged
	}
	if maxDepth != nil {
		est := round1(*maxDepth * estimatedAvgDepthRatio)
		return &est, models.DepthSourceEstimated
	}
	return nil, models.DepthSourceUnknown
}

func pressureDrop(start, end *float64) *float64 {
	if start == nil || end == nil {
		return nil
	}
	used := round1(*start - *end)
	if used <= 0 {
		return nil
	}
	return &used
}

func parseEnum[K ~string](r record, parse func(string) K, keys ...string) *K {
	s := r.text(keys...)
	if s == nil {
		return nil
	}
	code := parse(*s)
	return &code
}
