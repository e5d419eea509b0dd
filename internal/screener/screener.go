package screener

import (
	"errors"
	"fmt"

	"github.com/websentry/websentry/internal/model"
)

// DefaultRiskThreshold is the score at which a page is considered
// unsafe. A single prompt-injection pattern (+40) stays below it; an
// injection combined with any other threat crosses it.
const DefaultRiskThreshold = 50

// ErrEmptyContent is returned when the page to screen carries no HTML.
// The screener rejects empty input at the boundary rather than
// reporting a meaningless "safe" verdict for a page it never saw.
var ErrEmptyContent = errors.New("screener: page has no HTML content")

// Screener evaluates page content against the detection rule table and
// produces a ScreeningResult. The zero value is not usable; construct
// with New.
type Screener struct {
	// riskThreshold is the score boundary for the safe verdict.
	// Immutable after construction, which keeps Screen safe for
	// concurrent use without locking.
	riskThreshold int
}

// Option configures a Screener.
type Option func(*Screener)

// WithRiskThreshold sets the risk score boundary for the safe verdict.
// Values below 1 fall back to the default.
func WithRiskThreshold(threshold int) Option {
	return func(s *Screener) {
		if threshold > 0 {
			s.riskThreshold = threshold
		}
	}
}

// New creates a Screener with the given options.
func New(opts ...Option) *Screener {
	s := &Screener{
		riskThreshold: DefaultRiskThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RiskThreshold returns the configured risk threshold.
func (s *Screener) RiskThreshold() int {
	return s.riskThreshold
}

// Screen evaluates the page's raw HTML and returns the screening
// verdict. The input is never mutated. Sanitized content is always
// produced, independent of the safety verdict, so the caller can hand
// the cleaned copy to an agent even when the original was dangerous.
func (s *Screener) Screen(page model.PageContent) (*model.ScreeningResult, error) {
	if page.HTML == "" {
		return nil, fmt.Errorf("screening %q: %w", page.URL, ErrEmptyContent)
	}

	findings := evaluateRules(page.HTML)

	threats := make([]string, 0)
	warnings := make([]string, 0)
	riskScore := 0
	for _, f := range findings {
		riskScore += f.Score
		switch f.Category {
		case model.CategoryThreat:
			threats = append(threats, f.Description)
		case model.CategoryWarning:
			warnings = append(warnings, f.Description)
		}
	}

	result := &model.ScreeningResult{
		Safe:             riskScore < s.riskThreshold,
		SanitizedContent: Sanitize(page.HTML),
		Threats:          threats,
		Warnings:         warnings,
		RiskScore:        riskScore,
	}
	result.Report = s.composeReport(result, page.URL)

	return result, nil
}

// evaluateRules runs the full rule table in its fixed order and returns
// the triggered findings. Each rule fires at most once per document.
func evaluateRules(html string) []model.Finding {
	findings := make([]model.Finding, 0)

	// Prompt-injection patterns: per-distinct-pattern, not per-occurrence.
	for _, r := range injectionRules {
		if r.pattern.MatchString(html) {
			findings = append(findings, model.Finding{
				Category:    r.category,
				Description: r.description,
				Score:       r.score,
			})
		}
	}

	// Dangerous script bodies.
	for _, r := range scriptRules {
		if r.pattern.MatchString(html) {
			findings = append(findings, model.Finding{
				Category:    r.category,
				Description: r.description,
				Score:       r.score,
			})
		}
	}

	// Hidden-element density. The warning text carries the raw count
	// while the score contribution is capped.
	hiddenCount := 0
	for _, p := range hiddenElementPatterns {
		hiddenCount += len(p.FindAllStringIndex(html, -1))
	}
	if hiddenCount > hiddenElementFloor {
		findings = append(findings, model.Finding{
			Category:    model.CategoryWarning,
			Description: fmt.Sprintf("%d hidden elements detected", hiddenCount),
			Score:       min(hiddenCount, hiddenElementCap),
		})
	}

	// Encoded content: single check regardless of match count.
	if encodedContentPattern.MatchString(html) {
		findings = append(findings, model.Finding{
			Category:    model.CategoryWarning,
			Description: "Encoded content present (may be obfuscated)",
			Score:       scoreEncodedContent,
		})
	}

	// Meta-refresh redirect.
	if metaRefreshRule.pattern.MatchString(html) {
		findings = append(findings, model.Finding{
			Category:    metaRefreshRule.category,
			Description: metaRefreshRule.description,
			Score:       metaRefreshRule.score,
		})
	}

	return findings
}
