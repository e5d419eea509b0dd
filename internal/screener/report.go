package screener

import (
	"fmt"
	"strings"

	"github.com/websentry/websentry/internal/model"
)

// composeReport builds the narrative summary for a screening result.
// The persona is cosmetic; the structure is the contract: a URL
// reference, a counted enumeration of threats, a counted enumeration of
// warnings, the numeric score, and a binary pass/fail verdict.
//
// The "/100" in the score line is informational framing only; the scale
// is additive and not actually capped at 100.
func (s *Screener) composeReport(result *model.ScreeningResult, url string) string {
	target := url
	if target == "" {
		target = "this page"
	}

	if !result.HasFindings() {
		return fmt.Sprintf("Sentry: the joint looks clean. %s checks out.", target)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sentry: I went through %s. Here's what I found...\n", target)

	if len(result.Threats) > 0 {
		fmt.Fprintf(&sb, "  Found %d threat(s) lurking in the markup:\n", len(result.Threats))
		for _, threat := range result.Threats {
			fmt.Fprintf(&sb, "    - %s\n", threat)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(&sb, "  And %d thing(s) that raised an eyebrow:\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			fmt.Fprintf(&sb, "    - %s\n", warning)
		}
	}

	fmt.Fprintf(&sb, "  Risk score: %d/100\n", result.RiskScore)

	if result.RiskScore >= s.riskThreshold {
		sb.WriteString("  Verdict: this page is trouble. I sanitized it, but don't trust the original.")
	} else {
		sb.WriteString("  Verdict: a little rough around the edges, but I cleaned it up for you.")
	}

	return sb.String()
}
