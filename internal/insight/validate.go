package insight

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// MaxRecapSentences is the longest recap accepted from the model.
const MaxRecapSentences = 2

// Validation failures. Validate reports the first one it meets.
var (
	ErrEmptyResponse          = errors.New("empty model response")
	ErrInvalidJSON            = errors.New("model response is not valid JSON")
	ErrNotObject              = errors.New("model response is not a JSON object")
	ErrRecapMissing           = errors.New("recap missing or empty")
	ErrRecapTooLong           = errors.New("recap exceeds two sentences")
	ErrInsightMissing         = errors.New("dive_insight missing or not an object")
	ErrInsightTextMissing     = errors.New("dive_insight.text missing or empty")
	ErrBaselineMissing        = errors.New("dive_insight.baseline_comparison missing or empty")
	ErrEvidenceInvalid        = errors.New("dive_insight.evidence is not an array of strings")
	ErrRecommendationsMissing = errors.New("recommendations missing")
	ErrRecommendationsInvalid = errors.New("recommendations must be a non-empty array or the no-recommendations sentinel")
	ErrRecommendationInvalid  = errors.New("recommendation missing action or rationale")
)

var reasons = []struct {
	err  error
	name string
}{
	{ErrEmptyResponse, "empty"},
	{ErrInvalidJSON, "invalid_json"},
	{ErrNotObject, "not_object"},
	{ErrRecapMissing, "recap_missing"},
	{ErrRecapTooLong, "recap_too_long"},
	{ErrInsightMissing, "dive_insight_missing"},
	{ErrInsightTextMissing, "text_missing"},
	{ErrBaselineMissing, "baseline_missing"},
	{ErrEvidenceInvalid, "evidence_invalid"},
	{ErrRecommendationsMissing, "recommendations_missing"},
	{ErrRecommendationsInvalid, "recommendations_invalid"},
	{ErrRecommendationInvalid, "recommendation_invalid"},
}

// Reason returns a short label for a validation failure, suitable for a
// metric label. Unknown errors map to "other".
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return "other"
}

var reSentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

// Result is the tagged outcome of Validate. When OK is false, Err names the
// failure and Insight holds the fallback.
type Result struct {
	OK      bool
	Insight models.DiveInsightResponse
	Err     error
}

// Validate parses raw model text and checks it field by field. Any failure
// yields the supplied fallback instead of an error.
func Validate(raw string, fallback models.DiveInsightResponse) Result {
	resp, err := parse(raw)
	if err != nil {
		return Result{OK: false, Insight: fallback, Err: err}
	}
	return Result{OK: true, Insight: resp}
}

// FallbackInsight builds the model-free insight for a dive. baseline is the
// sentence to use for baseline_comparison.
func FallbackInsight(dive models.DiveContext, baseline string) models.DiveInsightResponse {
	return models.DiveInsightResponse{
		Recap: FallbackRecap(dive),
		DiveInsight: models.DiveInsight{
			Text:               models.InsufficientInfoSentinel,
			BaselineComparison: baseline,
			Evidence:           []string{},
		},
		Recommendations: models.NoRecommendations(),
	}
}

// FallbackRecap is a one-sentence recap built only from logged facts.
func FallbackRecap(d models.DiveContext) string {
	var b strings.Builder
	b.WriteString("Dive")
	if d.LocationName != nil {
		b.WriteString(" at ")
		b.WriteString(*d.LocationName)
		if d.LocationCountry != nil {
			b.WriteString(", ")
			b.WriteString(*d.LocationCountry)
		}
	}
	if d.Date != nil {
		b.WriteString(" on ")
		b.WriteString(*d.Date)
	}
	var stats []string
	if d.MaxDepth != nil {
		stats = append(stats, "max depth "+strconv.FormatFloat(*d.MaxDepth, 'f', -1, 64)+" m")
	}
	if d.Duration != nil {
		stats = append(stats, strconv.FormatFloat(*d.Duration, 'f', -1, 64)+" min")
	}
	if len(stats) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(stats, ", "))
		b.WriteString(")")
	}
	if b.Len() == len("Dive") {
		return "Dive logged."
	}
	b.WriteString(".")
	return b.String()
}

// CountSentences counts sentences terminated by '.', '!' or '?'. Trailing
// text without terminal punctuation counts as a sentence.
func CountSentences(s string) int {
	count := 0
	for _, part := range reSentenceEnd.Split(strings.TrimSpace(s), -1) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parse(raw string) (models.DiveInsightResponse, error) {
	var out models.DiveInsightResponse

	body := StripCodeFence(raw)
	if body == "" {
		return out, ErrEmptyResponse
	}
	var top any
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	obj, ok := top.(map[string]any)
	if !ok {
		return out, ErrNotObject
	}

	recap, ok := nonEmptyString(obj["recap"])
	if !ok {
		return out, ErrRecapMissing
	}
	if n := CountSentences(recap); n > MaxRecapSentences {
		return out, fmt.Errorf("%w: %d sentences", ErrRecapTooLong, n)
	}
	out.Recap = recap

	di, ok := obj["dive_insight"].(map[string]any)
	if !ok {
		return out, ErrInsightMissing
	}
	if out.DiveInsight.Text, ok = nonEmptyString(di["text"]); !ok {
		return out, ErrInsightTextMissing
	}
	if out.DiveInsight.BaselineComparison, ok = nonEmptyString(di["baseline_comparison"]); !ok {
		return out, ErrBaselineMissing
	}
	if out.DiveInsight.Evidence, ok = stringArray(di["evidence"]); !ok {
		return out, ErrEvidenceInvalid
	}

	recs, err := parseRecommendations(obj)
	if err != nil {
		return out, err
	}
	out.Recommendations = recs
	return out, nil
}

func parseRecommendations(obj map[string]any) (models.Recommendations, error) {
	v, present := obj["recommendations"]
	if !present || v == nil {
		return models.Recommendations{}, ErrRecommendationsMissing
	}
	switch recs := v.(type) {
	case string:
		if strings.TrimSpace(recs) != models.NoRecommendationsSentinel {
			return models.Recommendations{}, fmt.Errorf("%w: unexpected string %q", ErrRecommendationsInvalid, recs)
		}
		return models.NoRecommendations(), nil
	case []any:
		if len(recs) == 0 {
			return models.Recommendations{}, ErrRecommendationsInvalid
		}
		items := make([]models.Recommendation, 0, len(recs))
		for i, item := range recs {
			m, ok := item.(map[string]any)
			if !ok {
				return models.Recommendations{}, fmt.Errorf("%w: item %d is not an object", ErrRecommendationInvalid, i)
			}
			action, okA := nonEmptyString(m["action"])
			rationale, okR := nonEmptyString(m["rationale"])
			if !okA || !okR {
				return models.Recommendations{}, fmt.Errorf("%w: item %d", ErrRecommendationInvalid, i)
			}
			items = append(items, models.Recommendation{Action: action, Rationale: rationale})
		}
		return models.Recommendations{Items: items}, nil
	default:
		return models.Recommendations{}, ErrRecommendationsInvalid
	}
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func stringArray(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// Excerpt returns a short single-line form of a model response for logs.
func Excerpt(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(StripCodeFence(raw))); err != nil {
		return truncateString(raw, 200)
	}
	return truncateString(buf.String(), 200)
}
