package model

import (
	"errors"
	"testing"
)

// TestNewScreeningReport tests report initialization.
func TestNewScreeningReport(t *testing.T) {
	t.Parallel()

	r := NewScreeningReport("https://example.com")
	if r.Target != "https://example.com" {
		t.Errorf("Target = %q, expected %q", r.Target, "https://example.com")
	}
	if r.DateScreened.IsZero() {
		t.Error("DateScreened should be set")
	}
	if r.Safe() {
		t.Error("report without a result should not be safe")
	}
	if r.RiskScore() != 0 {
		t.Errorf("RiskScore() = %d, expected 0 for missing result", r.RiskScore())
	}
}

// TestScreeningReportSetError tests error recording.
func TestScreeningReportSetError(t *testing.T) {
	t.Parallel()

	r := NewScreeningReport("https://example.com")
	err := errors.New("navigation timeout")
	r.SetError(err)

	if !errors.Is(r.Error, err) {
		t.Error("Error should hold the recorded error")
	}
	if r.ErrorMessage != "navigation timeout" {
		t.Errorf("ErrorMessage = %q, expected %q", r.ErrorMessage, "navigation timeout")
	}

	r.SetError(nil)
	if r.ErrorMessage != "navigation timeout" {
		t.Error("SetError(nil) should not clear an existing message")
	}
}

// TestScreeningReportSafe tests the safety accessor.
func TestScreeningReportSafe(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		result   *ScreeningResult
		expected bool
	}{
		{"nil result", nil, false},
		{"safe result", &ScreeningResult{Safe: true}, true},
		{"unsafe result", &ScreeningResult{Safe: false, RiskScore: 70}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := NewScreeningReport("target")
			r.Result = tc.result
			if got := r.Safe(); got != tc.expected {
				t.Errorf("Safe() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestScreeningResultCounts tests finding count accessors.
func TestScreeningResultCounts(t *testing.T) {
	t.Parallel()

	r := &ScreeningResult{
		Threats:  []string{"PROMPT INJECTION: Hidden instruction in comment"},
		Warnings: []string{"6 hidden elements detected", "Encoded content present"},
	}

	if r.ThreatCount() != 1 {
		t.Errorf("ThreatCount() = %d, expected 1", r.ThreatCount())
	}
	if r.WarningCount() != 2 {
		t.Errorf("WarningCount() = %d, expected 2", r.WarningCount())
	}
	if !r.HasFindings() {
		t.Error("HasFindings() should be true")
	}

	empty := &ScreeningResult{}
	if empty.HasFindings() {
		t.Error("HasFindings() should be false for empty result")
	}
}
