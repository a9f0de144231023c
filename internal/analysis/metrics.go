// Package analysis derives deterministic metrics, signals and fingerprints
// from normalized dive data. Nothing here performs I/O.
package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// MinBaselineDives is the number of logged dives a profile needs before its
// averages count as a baseline.
const MinBaselineDives = 5

// Noise thresholds below which a delta is reported as within baseline.
var (
	DepthThreshold    = Threshold{Value: 1}
	DurationThreshold = Threshold{Value: 5}
	RMVThreshold      = Threshold{Value: 0.10, Relative: true}
)

// Evidence tags attached to an insight when a deterministic comparison is used.
const (
	TagDepthVsBaseline    = "depth_vs_baseline"
	TagDurationVsBaseline = "duration_vs_baseline"
	TagGasVsBaseline      = "gas_efficiency_vs_baseline"
)

// Threshold is an absolute delta, or a fraction of the baseline when Relative.
type Threshold struct {
	Value    float64
	Relative bool
}

func (t Threshold) limit(average float64) float64 {
	if t.Relative {
		return math.Abs(average) * t.Value
	}
	return t.Value
}

// Direction is the outcome of comparing a value against its baseline.
type Direction int

const (
	Within Direction = iota
	Above
	Below
)

// Delta is a single comparison outcome.
type Delta struct {
	Direction Direction
	Amount    float64
	Current   float64
	Average   float64
	Threshold float64
}

// EstimateConsumptionRate returns surface-equivalent gas consumption in
// liters per minute, rounded to one decimal. It returns nil unless every
// input is present, finite and physically possible.
func EstimateConsumptionRate(gasUsed, cylinderSize, avgDepth, duration *float64) *float64 {
	if !finite(gasUsed) || !finite(cylinderSize) || !finite(avgDepth) || !finite(duration) {
		return nil
	}
	if *gasUsed <= 0 || *cylinderSize <= 0 || *duration <= 0 || *avgDepth < 0 {
		return nil
	}
	atm := *avgDepth/10 + 1
	liters := *gasUsed * *cylinderSize
	rate := round1(liters / (atm * *duration))
	if rate <= 0 {
		return nil
	}
	return &rate
}

// CompareToBaseline classifies current against average. It returns nil when
// either side is missing.
func CompareToBaseline(current, average *float64, threshold Threshold) *Delta {
	if !finite(current) || !finite(average) {
		return nil
	}
	diff := *current - *average
	d := &Delta{
		Amount:    round1(math.Abs(diff)),
		Current:   *current,
		Average:   *average,
		Threshold: threshold.limit(*average),
	}
	switch {
	case math.Abs(diff) < d.Threshold:
		d.Direction = Within
	case diff > 0:
		d.Direction = Above
	default:
		d.Direction = Below
	}
	return d
}

// ComputeMetrics derives the consumption rate and the three baseline
// comparisons. Each comparison is independent of the others.
func ComputeMetrics(dive models.DiveContext, profile models.DiverProfile) models.ComputedMetrics {
	m := models.ComputedMetrics{
		EstimatedRMV: EstimateConsumptionRate(dive.GasUsed, dive.CylinderSize, dive.AvgDepth, dive.Duration),
	}
	m.DepthComparison = describe("Depth", "m", CompareToBaseline(dive.MaxDepth, profile.AvgDepth, DepthThreshold))
	m.DurationComparison = describe("Duration", "min", CompareToBaseline(dive.Duration, profile.AvgDuration, DurationThreshold))
	m.GasEfficiencyComparison = describe("Gas consumption", "L/min", CompareToBaseline(m.EstimatedRMV, profile.AvgRMV, RMVThreshold))
	return m
}

// HasBaseline reports whether the profile carries enough history for
// comparisons to be meaningful.
func HasBaseline(p models.DiverProfile) bool {
	if p.TotalDives == nil || *p.TotalDives < MinBaselineDives {
		return false
	}
	return p.AvgDepth != nil || p.AvgDuration != nil || p.AvgRMV != nil
}

// PreferredComparison returns the first available comparison in depth,
// duration, gas order together with its evidence tag.
func PreferredComparison(m models.ComputedMetrics) (string, string, bool) {
	for _, c := range []struct {
		text *string
		tag  string
	}{
		{m.DepthComparison, TagDepthVsBaseline},
		{m.DurationComparison, TagDurationVsBaseline},
		{m.GasEfficiencyComparison, TagGasVsBaseline},
	} {
		if c.text != nil {
			return *c.text, c.tag, true
		}
	}
	return "", "", false
}

func describe(label, unit string, d *Delta) *string {
	if d == nil {
		return nil
	}
	var s string
	switch d.Direction {
	case Within:
		s = fmt.Sprintf("%s: within threshold of baseline (%s %s vs %s %s average).",
			label, formatNumber(d.Current), unit, formatNumber(d.Average), unit)
	case Above:
		s = fmt.Sprintf("%s: above baseline by ~%s %s (%s %s vs %s %s average).",
			label, formatNumber(d.Amount), unit, formatNumber(d.Current), unit, formatNumber(d.Average), unit)
	case Below:
		s = fmt.Sprintf("%s: below baseline by ~%s %s (%s %s vs %s %s average).",
			label, formatNumber(d.Amount), unit, formatNumber(d.Current), unit, formatNumber(d.Average), unit)
	}
	return &s
}

// formatNumber renders at most one decimal and drops a trailing ".0".
func formatNumber(f float64) string {
	return strconv.FormatFloat(round1(f), 'f', -1, 64)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
