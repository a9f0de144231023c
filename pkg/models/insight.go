package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Fixed sentinel values shared by the model contract, the fallback insight
// and the policy checks.
const (
	NoBaselineSentinel        = "No baseline available for comparison."
	InsufficientInfoSentinel  = "Insufficient information to generate a dive insight."
	NoRecommendationsSentinel = "No specific recommendations."
	BaselineUnverifiable      = "A baseline exists but there are insufficient metrics on this dive to compare against it."
)

// ComputedMetrics holds values derived from a dive and profile.
// Each comparison is nil unless both the dive value and the baseline exist.
type ComputedMetrics struct {
	EstimatedRMV            *float64 `json:"estimated_rmv"`
	DepthComparison         *string  `json:"depth_comparison"`
	DurationComparison      *string  `json:"duration_comparison"`
	GasEfficiencyComparison *string  `json:"gas_efficiency_comparison"`
}

// Signal is a short factual flag derived from the dive inputs.
type Signal struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Recommendation is a single actionable suggestion.
type Recommendation struct {
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// Recommendations is either a non-empty list or the NoRecommendationsSentinel.
// It encodes as a JSON array or as the sentinel string.
type Recommendations struct {
	Items []Recommendation
}

// NoRecommendations returns the sentinel value.
func NoRecommendations() Recommendations { return Recommendations{} }

// None reports whether r is the sentinel.
func (r Recommendations) None() bool { return len(r.Items) == 0 }

func (r Recommendations) MarshalJSON() ([]byte, error) {
	if r.None() {
		return json.Marshal(NoRecommendationsSentinel)
	}
	return json.Marshal(r.Items)
}

func (r *Recommendations) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != NoRecommendationsSentinel {
			return errors.New("recommendations: unexpected string value")
		}
		r.Items = nil
		return nil
	}
	var items []Recommendation
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	r.Items = items
	return nil
}

// DiveInsight is the free-text part of an insight.
type DiveInsight struct {
	Text               string   `json:"text"`
	BaselineComparison string   `json:"baseline_comparison"`
	Evidence           []string `json:"evidence"`
}

// DiveInsightResponse is the accepted insight returned to callers.
type DiveInsightResponse struct {
	Recap           string          `json:"recap"`
	DiveInsight     DiveInsight     `json:"dive_insight"`
	Recommendations Recommendations `json:"recommendations"`
}

// StoredDiveInsight is the record persisted in the dive's insight column.
type StoredDiveInsight struct {
	Version     string              `json:"version"`
	Model       string              `json:"model"`
	Fingerprint string              `json:"fingerprint"`
	GeneratedAt time.Time           `json:"generated_at"`
	Insight     DiveInsightResponse `json:"insight"`
	Metrics     ComputedMetrics     `json:"metrics"`
	Signals     []Signal            `json:"signals"`
}
