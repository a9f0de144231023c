package analysis

import (
	"fmt"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// Signal thresholds.
const (
	ColdWaterMaxC        = 16.0
	ExtendedDurationMin  = 60.0
	DeepDiveMinM         = 30.0
	LowReserveBar        = 50.0
	ElevatedRMVRatio     = 1.2
	LimitedExperienceMax = 20
)

// Signal keys.
const (
	SignalColdWater         = "cold_water"
	SignalThermalProtection = "thermal_protection"
	SignalOverhead          = "overhead_environment"
	SignalStrongCurrent     = "strong_current"
	SignalExtendedDuration  = "extended_duration"
	SignalDeep              = "deep_profile"
	SignalPoorVisibility    = "poor_visibility"
	SignalNight             = "night_dive"
	SignalEnrichedGas       = "enriched_gas"
	SignalElevatedRMV       = "elevated_consumption"
	SignalLowReserve        = "low_reserve"
	SignalLimitedExperience = "limited_experience"
	SignalEstimatedDepth    = "estimated_avg_depth"
)

// signalKeywords are the words a recommendation rationale may use to refer
// to a signal.
var signalKeywords = map[string][]string{
	SignalColdWater:         {"cold", "temperature", "thermal", "°c"},
	SignalThermalProtection: {"exposure", "wetsuit", "thermal", "suit"},
	SignalOverhead:          {"overhead", "cave", "cavern", "ice", "penetration"},
	SignalStrongCurrent:     {"current", "drift"},
	SignalExtendedDuration:  {"bottom time", "duration", "minutes", "min"},
	SignalDeep:              {"deep", "depth", "narcosis"},
	SignalPoorVisibility:    {"visibility", "buddy contact"},
	SignalNight:             {"night", "torch", "light"},
	SignalEnrichedGas:       {"nitrox", "ean", "oxygen", "mod", "enriched"},
	SignalElevatedRMV:       {"rmv", "consumption", "sac", "l/min", "breathing rate"},
	SignalLowReserve:        {"reserve", "end pressure", "bar", "turn pressure"},
	SignalLimitedExperience: {"experience", "logged dives"},
	SignalEstimatedDepth:    {"average depth", "estimated"},
}

// SignalKeywords returns the rationale keywords for a signal key.
func SignalKeywords(key string) []string {
	return signalKeywords[key]
}

type signalRule func(models.DiveContext, models.DiverProfile, models.ComputedMetrics) (models.Signal, bool)

// rules run in this order; each fires only on fields that are present.
var rules = []signalRule{
	coldWater,
	thermalProtection,
	overhead,
	strongCurrent,
	extendedDuration,
	deepProfile,
	poorVisibility,
	nightDive,
	enrichedGas,
	elevatedConsumption,
	lowReserve,
	limitedExperience,
	estimatedDepth,
}

// ExtractSignals evaluates every rule and returns the signals that fired, in
// rule order. The result is nil when nothing fired.
func ExtractSignals(dive models.DiveContext, profile models.DiverProfile, metrics models.ComputedMetrics) []models.Signal {
	var out []models.Signal
	for _, rule := range rules {
		if s, ok := rule(dive, profile, metrics); ok {
			out = append(out, s)
		}
	}
	return out
}

func coldWater(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.WaterTemp == nil || *d.WaterTemp > ColdWaterMaxC {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalColdWater,
		Text: fmt.Sprintf("Cold-water exposure (%s °C).", formatNumber(*d.WaterTemp)),
	}, true
}

func thermalProtection(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.WaterTemp == nil || *d.WaterTemp > ColdWaterMaxC || d.Exposure == nil {
		return models.Signal{}, false
	}
	switch *d.Exposure {
	case models.ExposureNone, models.ExposureRashGuard, models.ExposureShorty:
	default:
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalThermalProtection,
		Text: fmt.Sprintf("Light exposure protection (%s) for %s °C water.", d.Exposure.Label(), formatNumber(*d.WaterTemp)),
	}, true
}

func overhead(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.DiveType == nil || !d.DiveType.IsOverhead() {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalOverhead,
		Text: fmt.Sprintf("Overhead environment (%s) requiring overhead-environment discipline.", d.DiveType.Label()),
	}, true
}

func strongCurrent(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.Currents == nil || *d.Currents != models.CurrentStrong {
		return models.Signal{}, false
	}
	return models.Signal{Key: SignalStrongCurrent, Text: "Strong current reported."}, true
}

func extendedDuration(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.Duration == nil || *d.Duration < ExtendedDurationMin {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalExtendedDuration,
		Text: fmt.Sprintf("Extended bottom time (%s min).", formatNumber(*d.Duration)),
	}, true
}

func deepProfile(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.MaxDepth == nil || *d.MaxDepth < DeepDiveMinM {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalDeep,
		Text: fmt.Sprintf("Deep profile (%s m maximum depth).", formatNumber(*d.MaxDepth)),
	}, true
}

func poorVisibility(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.Visibility == nil || *d.Visibility != models.VisibilityPoor {
		return models.Signal{}, false
	}
	return models.Signal{Key: SignalPoorVisibility, Text: "Poor visibility reported."}, true
}

func nightDive(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.DiveType == nil || *d.DiveType != models.DiveTypeNight {
		return models.Signal{}, false
	}
	return models.Signal{Key: SignalNight, Text: "Night dive."}, true
}

func enrichedGas(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.Gas == nil || !d.Gas.IsEnriched() {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalEnrichedGas,
		Text: fmt.Sprintf("Enriched gas in use (%s).", d.Gas.Label()),
	}, true
}

func elevatedConsumption(_ models.DiveContext, p models.DiverProfile, m models.ComputedMetrics) (models.Signal, bool) {
	if m.EstimatedRMV == nil || p.AvgRMV == nil || *p.AvgRMV <= 0 {
		return models.Signal{}, false
	}
	if *m.EstimatedRMV <= *p.AvgRMV*ElevatedRMVRatio {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalElevatedRMV,
		Text: fmt.Sprintf("Gas consumption elevated versus personal average (%s vs %s L/min).",
			formatNumber(*m.EstimatedRMV), formatNumber(*p.AvgRMV)),
	}, true
}

func lowReserve(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.EndPressure == nil || *d.EndPressure < 0 || *d.EndPressure >= LowReserveBar {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalLowReserve,
		Text: fmt.Sprintf("Low end pressure (%s bar).", formatNumber(*d.EndPressure)),
	}, true
}

func limitedExperience(_ models.DiveContext, p models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if p.TotalDives == nil || *p.TotalDives >= LimitedExperienceMax {
		return models.Signal{}, false
	}
	return models.Signal{
		Key:  SignalLimitedExperience,
		Text: fmt.Sprintf("Limited logged experience (%d dives).", *p.TotalDives),
	}, true
}

func estimatedDepth(d models.DiveContext, _ models.DiverProfile, _ models.ComputedMetrics) (models.Signal, bool) {
	if d.AvgDepthSource != models.DepthSourceEstimated {
		return models.Signal{}, false
	}
	return models.Signal{Key: SignalEstimatedDepth, Text: "Average depth estimated from maximum depth."}, true
}
