package model

// ScreeningResult is the screener's verdict for a single page.
// It is created fresh per screening call and never mutated after
// construction.
//
// Design decision: Threats and Warnings are plain string slices rather
// than []Finding because this is the transport contract consumed by
// downstream agents and the CLI; the structured findings (with scores)
// are an internal detail of the rule engine. Order is preserved from
// rule evaluation order.
type ScreeningResult struct {
	// Safe is true when RiskScore is strictly below the screener's
	// configured risk threshold.
	Safe bool `json:"safe"`

	// SanitizedContent is the redacted HTML. It is always produced,
	// independent of the Safe verdict, so callers can hand it to an
	// agent even when the original markup was dangerous.
	SanitizedContent string `json:"sanitized_content"`

	// Threats lists high-severity findings in rule evaluation order.
	Threats []string `json:"threats"`

	// Warnings lists lower-severity findings in rule evaluation order.
	Warnings []string `json:"warnings"`

	// RiskScore is the sum of all triggered rule contributions.
	// Non-negative; in practice bounded around 200 but not capped.
	RiskScore int `json:"risk_score"`

	// Report is the human-readable narrative summary.
	Report string `json:"report"`
}

// ThreatCount returns the number of threat findings.
func (r *ScreeningResult) ThreatCount() int {
	return len(r.Threats)
}

// WarningCount returns the number of warning findings.
func (r *ScreeningResult) WarningCount() int {
	return len(r.Warnings)
}

// HasFindings returns true if any threats or warnings were detected.
func (r *ScreeningResult) HasFindings() bool {
	return len(r.Threats) > 0 || len(r.Warnings) > 0
}
