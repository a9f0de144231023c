// Package insight builds the model prompt and gates the model's answer:
// Validate checks structure, Enforce applies semantic policy. Both are pure.
package insight

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/divelog/internal/analysis"
	"github.com/kiranshivaraju/divelog/pkg/models"
)

// PromptVersion identifies the prompt template and output contract. It is
// part of every fingerprint, so bumping it invalidates stored insights.
const PromptVersion = "dive-insight-v1"

const (
	notAvailable  = "N/A"
	maxNotesBytes = 1000
)

// SystemPrompt is sent as the system instruction on every request.
const SystemPrompt = `You are a dive log analyst. You write short, factual debriefs of a single recreational scuba dive.
You only use facts present in the provided dive data, diver profile, computed metrics and signals.
You never invent depths, times, locations, species, equipment or events.
You respond with a single JSON object and nothing else.`

// Input is everything the prompt is rendered from.
type Input struct {
	Dive        models.DiveContext
	Profile     models.DiverProfile
	Metrics     models.ComputedMetrics
	Signals     []models.Signal
	HasBaseline bool
}

// BuildPrompt renders the user prompt. Identical input always yields an
// identical prompt.
func BuildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("Write a debrief for the dive below.\n\n")
	writeContract(&b, in.HasBaseline)

	d := in.Dive
	b.WriteString("DIVE\n")
	line(&b, "Date", text(d.Date))
	line(&b, "Location", text(d.LocationName))
	line(&b, "Country", text(d.LocationCountry))
	line(&b, "Max depth (m)", number(d.MaxDepth))
	line(&b, "Average depth (m)", number(d.AvgDepth)+depthSourceNote(d.AvgDepthSource))
	line(&b, "Duration (min)", number(d.Duration))
	line(&b, "Water temperature (°C)", number(d.WaterTemp))
	line(&b, "Visibility", label(d.Visibility))
	line(&b, "Dive type", label(d.DiveType))
	line(&b, "Water type", label(d.WaterType))
	line(&b, "Exposure protection", label(d.Exposure))
	line(&b, "Currents", label(d.Currents))
	line(&b, "Gas", label(d.Gas))
	line(&b, "Start pressure (bar)", number(d.StartPressure))
	line(&b, "End pressure (bar)", number(d.EndPressure))
	line(&b, "Gas used (bar)", number(d.GasUsed))
	line(&b, "Cylinder type", text(d.CylinderType))
	line(&b, "Cylinder size (L)", number(d.CylinderSize))
	line(&b, "Equipment", list(d.Equipment))
	line(&b, "Wildlife", list(d.Wildlife))
	notes := notAvailable
	if d.Notes != nil {
		notes = strconv.Quote(truncateString(*d.Notes, maxNotesBytes))
	}
	line(&b, "Notes", notes)

	p := in.Profile
	b.WriteString("\nDIVER PROFILE\n")
	line(&b, "Certification", label(p.CertificationLevel))
	line(&b, "Total logged dives", integer(p.TotalDives))
	line(&b, "Average depth (m)", number(p.AvgDepth))
	line(&b, "Average duration (min)", number(p.AvgDuration))
	line(&b, "Recent dives", integer(p.RecentDiveCount))
	line(&b, "Average RMV (L/min)", number(p.AvgRMV))

	m := in.Metrics
	b.WriteString("\nCOMPUTED METRICS\n")
	line(&b, "Estimated RMV (L/min)", number(m.EstimatedRMV))
	line(&b, "Depth vs baseline", text(m.DepthComparison))
	line(&b, "Duration vs baseline", text(m.DurationComparison))
	line(&b, "Gas consumption vs baseline", text(m.GasEfficiencyComparison))

	b.WriteString("\nSIGNALS\n")
	if len(in.Signals) == 0 {
		b.WriteString("- none\n")
	}
	for _, s := range in.Signals {
		fmt.Fprintf(&b, "- [%s] %s\n", s.Key, s.Text)
	}

	b.WriteString("\nRULES\n")
	b.WriteString("- Do not state any fact that is not listed above. Treat N/A as unknown, never as zero or absent.\n")
	b.WriteString("- Do not guess the diver's skill, health or intentions.\n")
	b.WriteString("- Every recommendation rationale must name the signal or metric it is based on.\n")
	b.WriteString("- Avoid generic advice (monitor your gas, maintain buoyancy, dive within limits) unless a signal or metric above calls for it.\n")
	return b.String()
}

func writeContract(b *strings.Builder, hasBaseline bool) {
	b.WriteString("OUTPUT FORMAT\n")
	b.WriteString("Return a JSON object with exactly these fields:\n")
	b.WriteString(`- "recap": string, at most two sentences summarising the dive factually.` + "\n")
	b.WriteString(`- "dive_insight": object with "text" (string, one short paragraph), "baseline_comparison" (string) and "evidence" (array of strings naming the signals or metrics used).` + "\n")
	fmt.Fprintf(b, `- "recommendations": an array of {"action": string, "rationale": string} objects, or the exact string %q.`+"\n", models.NoRecommendationsSentinel)
	if hasBaseline {
		b.WriteString(`- "baseline_comparison" must compare this dive to the diver's averages using the computed metrics (deeper, shallower, longer, shorter, higher, lower).` + "\n")
	} else {
		fmt.Fprintf(b, `- No baseline exists for this diver: "baseline_comparison" must be exactly %q.`+"\n", models.NoBaselineSentinel)
	}
	fmt.Fprintf(b, `- If the data is too sparse for an insight, set "text" to exactly %q.`+"\n\n", models.InsufficientInfoSentinel)
}

func line(b *strings.Builder, name, value string) {
	b.WriteString("- ")
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

func text(s *string) string {
	if s == nil {
		return notAvailable
	}
	return *s
}

func number(f *float64) string {
	if f == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func integer(i *int) string {
	if i == nil {
		return notAvailable
	}
	return strconv.Itoa(*i)
}

func list(items []string) string {
	if len(items) == 0 {
		return notAvailable
	}
	return strings.Join(items, ", ")
}

func label[K interface{ Label() string }](v *K) string {
	if v == nil {
		return notAvailable
	}
	return (*v).Label()
}

func depthSourceNote(src models.DepthSource) string {
	if src == models.DepthSourceEstimated {
		return " (estimated as 70% of max depth)"
	}
	return ""
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

// DeterministicBaseline returns the sentence the fallback insight uses for
// baseline_comparison.
func DeterministicBaseline(in Input) string {
	if !in.HasBaseline {
		return models.NoBaselineSentinel
	}
	if sentence, _, ok := analysis.PreferredComparison(in.Metrics); ok {
		return sentence
	}
	return models.BaselineUnverifiable
}
