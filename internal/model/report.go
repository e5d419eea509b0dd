package model

import "time"

// ScreeningReport is the envelope for one screened target.
// It combines page metadata with the screening result and is the unit of
// persistence (history database) and report rendering.
//
// Design decision: We use a single flat struct rather than nesting
// page/result/status sub-structs because the report is the only consumer
// boundary and flat structures serialize predictably to both JSON and
// SQLite columns.
type ScreeningReport struct {
	// Target is the URL or file path that was screened.
	Target string `json:"target"`

	// DateScreened is when the screening was performed.
	DateScreened time.Time `json:"date_screened"`

	// Page is the captured page content.
	// Nil when fetching failed before any content was retrieved.
	Page *PageContent `json:"page,omitempty"`

	// Result is the screening verdict.
	// Nil when screening was not reached (fetch failure).
	Result *ScreeningResult `json:"result,omitempty"`

	// FetchedVia records how the page was retrieved: "browser", "http",
	// or "file". Useful when comparing historical screenings, since the
	// browser sees post-JavaScript markup and the fetcher does not.
	FetchedVia string `json:"fetched_via,omitempty"`

	// ScreenshotPath is the saved screenshot location, if one was taken.
	ScreenshotPath string `json:"screenshot_path,omitempty"`

	// Error contains any error that occurred during fetch or screening.
	Error error `json:"-"` // Excluded from JSON; see ErrorMessage

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewScreeningReport creates a new report for the given target.
func NewScreeningReport(target string) *ScreeningReport {
	return &ScreeningReport{
		Target:       target,
		DateScreened: time.Now(),
	}
}

// SetError records a fetch or screening error on the report.
func (r *ScreeningReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Safe reports whether the screening completed and passed.
// A report with no result (fetch failure) is never safe.
func (r *ScreeningReport) Safe() bool {
	return r.Result != nil && r.Result.Safe
}

// RiskScore returns the screening risk score, or zero when screening
// was not reached.
func (r *ScreeningReport) RiskScore() int {
	if r.Result == nil {
		return 0
	}
	return r.Result.RiskScore
}
