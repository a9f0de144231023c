package insight

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/divelog/pkg/models"
)

// RenderSummary renders an insight as fixed-section plain text.
func RenderSummary(in models.DiveInsightResponse) string {
	var b strings.Builder

	section(&b, "Recap", in.Recap)
	section(&b, "Dive Insight", in.DiveInsight.Text)
	section(&b, "Baseline Comparison", in.DiveInsight.BaselineComparison)

	if len(in.DiveInsight.Evidence) == 0 {
		section(&b, "Evidence", "None")
	} else {
		lines := make([]string, len(in.DiveInsight.Evidence))
		for i, e := range in.DiveInsight.Evidence {
			lines[i] = "- " + e
		}
		section(&b, "Evidence", strings.Join(lines, "\n"))
	}

	b.WriteString("Recommendations\n")
	if in.Recommendations.None() {
		b.WriteString(models.NoRecommendationsSentinel)
	} else {
		for i, r := range in.Recommendations.Items {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d. %s (%s)", i+1, r.Action, r.Rationale)
		}
	}
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString(title)
	b.WriteByte('\n')
	b.WriteString(body)
	b.WriteString("\n\n")
}
