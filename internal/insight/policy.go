package insight

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kiranshivaraju/divelog/internal/analysis"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

// Policy rules, reported in Outcome.Corrections when they change the insight.
const (
	RuleBlankText           = "blank_text"
	RuleNoBaseline          = "no_baseline"
	RuleBaselineSubstituted = "baseline_substituted"
	RuleBaselineUnverified  = "baseline_unverifiable"
	RuleGenericDropped      = "generic_recommendation_dropped"
	RuleRecommendationsNone = "recommendations_emptied"
)

var reComparative = regexp.MustCompile(`(?i)\b(deeper|shallower|longer|shorter|higher|lower|improved|decreased|average|baseline)\b`)

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmonitor(ing)?\s+(your\s+)?(gas|air|pressure|spg|gauges?)\b`),
	regexp.MustCompile(`(?i)\bcheck\s+(your\s+)?(gas|air|pressure|spg|gauges?)\s+(often|frequently|regularly)\b`),
	regexp.MustCompile(`(?i)\bmaintain(ing)?\s+(good\s+|proper\s+|neutral\s+)?buoyancy\b`),
	regexp.MustCompile(`(?i)\b(dive|stay)\s+within\s+(your\s+)?(limits|training)\b`),
	regexp.MustCompile(`(?i)\b(always\s+)?dive\s+with\s+a\s+buddy\b`),
	regexp.MustCompile(`(?i)\bcheck\s+(your\s+)?(equipment|gear)\b`),
	regexp.MustCompile(`(?i)\bstay\s+hydrated\b`),
	regexp.MustCompile(`(?i)\bplan\s+your\s+(next\s+)?dive\b`),
	regexp.MustCompile(`(?i)\b(relax|breathe\s+slowly|stay\s+calm)\b`),
	regexp.MustCompile(`(?i)\bsafety\s+stop\b`),
}

// metricTokens name each computed metric in the words a rationale may use.
var metricTokens = map[string][]string{
	"rmv":      {"rmv", "sac", "consumption", "l/min", "breathing rate"},
	"depth":    {"depth", "deeper", "shallower"},
	"duration": {"duration", "bottom time", "longer", "shorter"},
	"gas":      {"gas consumption", "gas efficiency", "rmv", "l/min"},
}

// PolicyInput is the validated (or fallback) insight plus the deterministic
// context it is checked against.
type PolicyInput struct {
	Insight     models.DiveInsightResponse
	Dive        models.DiveContext
	Metrics     models.ComputedMetrics
	Signals     []models.Signal
	HasBaseline bool
}

// Outcome is the corrected insight and the rules that changed it.
type Outcome struct {
	Insight     models.DiveInsightResponse
	Corrections []string
}

// Enforce re-checks invariants the model cannot be trusted to uphold and
// corrects the insight in place of failing. It does not modify in.
func Enforce(in PolicyInput) Outcome {
	out := Outcome{Insight: cloneInsight(in.Insight)}
	ins := &out.Insight

	if strings.TrimSpace(ins.DiveInsight.Text) == "" {
		ins.DiveInsight.Text = models.InsufficientInfoSentinel
		out.Corrections = append(out.Corrections, RuleBlankText)
	}

	if !in.HasBaseline {
		if ins.DiveInsight.BaselineComparison != models.NoBaselineSentinel {
			ins.DiveInsight.BaselineComparison = models.NoBaselineSentinel
			out.Corrections = append(out.Corrections, RuleNoBaseline)
		}
	} else if !IsComparative(ins.DiveInsight.BaselineComparison) {
		text, tag, ok := analysis.PreferredComparison(in.Metrics)
		if !ok {
			out.Insight = FallbackInsight(in.Dive, models.BaselineUnverifiable)
			out.Corrections = append(out.Corrections, RuleBaselineUnverified)
			return out
		}
		ins.DiveInsight.BaselineComparison = text
		ins.DiveInsight.Evidence = appendUnique(ins.DiveInsight.Evidence, tag)
		out.Corrections = append(out.Corrections, RuleBaselineSubstituted)
	}

	if !ins.Recommendations.None() {
		tokens := referenceTokens(in.Signals, in.Metrics)
		kept := ins.Recommendations.Items[:0]
		for _, r := range ins.Recommendations.Items {
			if IsGeneric(r) && !references(r.Rationale, tokens) {
				out.Corrections = append(out.Corrections, RuleGenericDropped)
				continue
			}
			kept = append(kept, r)
		}
		ins.Recommendations.Items = kept
		if len(kept) == 0 {
			ins.Recommendations = models.NoRecommendations()
			out.Corrections = append(out.Corrections, RuleRecommendationsNone)
		}
	}
	return out
}

// IsComparative reports whether s reads as a genuine baseline comparison.
// The no-baseline sentinel never does.
func IsComparative(s string) bool {
	if strings.TrimSpace(s) == models.NoBaselineSentinel {
		return false
	}
	return reComparative.MatchString(s)
}

// IsGeneric reports whether a recommendation's action is stock advice.
func IsGeneric(r models.Recommendation) bool {
	for _, re := range genericPatterns {
		if re.MatchString(r.Action) {
			return true
		}
	}
	return false
}

func referenceTokens(signals []models.Signal, m models.ComputedMetrics) []string {
	var tokens []string
	for _, s := range signals {
		tokens = append(tokens, s.Key, strings.ReplaceAll(s.Key, "_", " "))
		tokens = append(tokens, analysis.SignalKeywords(s.Key)...)
	}
	if m.EstimatedRMV != nil {
		tokens = append(tokens, metricTokens["rmv"]...)
	}
	if m.DepthComparison != nil {
		tokens = append(tokens, metricTokens["depth"]...)
	}
	if m.DurationComparison != nil {
		tokens = append(tokens, metricTokens["duration"]...)
	}
	if m.GasEfficiencyComparison != nil {
		tokens = append(tokens, metricTokens["gas"]...)
	}
	return tokens
}

// references reports whether text contains any token as a whole word.
func references(text string, tokens []string) bool {
	lower := strings.ToLower(text)
	for _, tok := range tokens {
		if containsWord(lower, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		before, _ := utf8.DecodeLastRuneInString(text[:i])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (i == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		start = i + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}

func cloneInsight(in models.DiveInsightResponse) models.DiveInsightResponse {
	out := in
	out.DiveInsight.Evidence = append([]string{}, in.DiveInsight.Evidence...)
	if !in.Recommendations.None() {
		out.Recommendations.Items = append([]models.Recommendation(nil), in.Recommendations.Items...)
	}
	return out
}
