package database

import (
	"context"
	"testing"
	"time"

	"github.com/websentry/websentry/internal/model"
)

// newTestDB opens a ScreenDB in a temporary directory.
func newTestDB(t *testing.T) *ScreenDB {
	t.Helper()

	sdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		_ = sdb.Close()
	})
	return sdb
}

// sampleReport builds a completed report for storage tests.
func sampleReport(target string, safe bool) *model.ScreeningReport {
	report := model.NewScreeningReport(target)
	report.FetchedVia = "http"
	report.Page = &model.PageContent{
		URL:  target,
		HTML: "<html></html>",
		Hash: "abc123",
	}
	score := 10
	if !safe {
		score = 80
	}
	report.Result = &model.ScreeningResult{
		Safe:      safe,
		RiskScore: score,
		Threats:   []string{"Potential prompt injection detected"},
		Warnings:  []string{"Encoded content present (may be obfuscated)"},
	}
	return report
}

// TestOpenRequiresExisting tests the mode=rw open path.
func TestOpenRequiresExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Open(dir, Options{CreateIfNotExists: false}); err == nil {
		t.Error("expected error opening missing database without create")
	}

	// Create it, then reopen read-write.
	sdb, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	_ = sdb.Close()

	sdb2, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("reopening database: %v", err)
	}
	_ = sdb2.Close()
}

// TestSaveAndGetLatestReport tests the round trip through storage.
func TestSaveAndGetLatestReport(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	ctx := context.Background()
	target := "https://example.com"

	if err := sdb.SaveReport(ctx, sampleReport(target, true)); err != nil {
		t.Fatalf("saving report: %v", err)
	}
	if err := sdb.SaveReport(ctx, sampleReport(target, false)); err != nil {
		t.Fatalf("saving report: %v", err)
	}

	got, err := sdb.GetLatestReport(ctx, target)
	if err != nil {
		t.Fatalf("getting report: %v", err)
	}
	if got == nil {
		t.Fatal("expected a report")
	}
	if got.Target != target {
		t.Errorf("Target = %q", got.Target)
	}
	// Latest wins: the unsafe report was saved second.
	if got.Safe() {
		t.Error("latest report should be the unsafe one")
	}
	if got.RiskScore() != 80 {
		t.Errorf("RiskScore = %d, expected 80", got.RiskScore())
	}
}

// TestGetLatestReportMissing tests the no-rows path.
func TestGetLatestReportMissing(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)

	got, err := sdb.GetLatestReport(context.Background(), "https://never-screened.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil report for unknown target")
	}
}

// TestSaveReportNil tests input validation.
func TestSaveReportNil(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	if err := sdb.SaveReport(context.Background(), nil); err == nil {
		t.Error("expected error for nil report")
	}
}

// TestSaveReportWithoutResult tests that fetch failures are stored.
func TestSaveReportWithoutResult(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	ctx := context.Background()

	report := model.NewScreeningReport("https://unreachable.example.com")
	report.ErrorMessage = "connection refused"

	if err := sdb.SaveReport(ctx, report); err != nil {
		t.Fatalf("saving report: %v", err)
	}

	metas, err := sdb.RecentScreenings(ctx, 0)
	if err != nil {
		t.Fatalf("listing screenings: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("got %d screenings, expected 1", len(metas))
	}
	if metas[0].Safe {
		t.Error("report without result should not be safe")
	}
	if metas[0].RiskScore != 0 || metas[0].ThreatCount != 0 {
		t.Errorf("metadata = %+v, expected zero counts", metas[0])
	}
}

// TestGetHistory tests per-target history retrieval.
func TestGetHistory(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	ctx := context.Background()
	target := "https://example.com"

	for range 3 {
		if err := sdb.SaveReport(ctx, sampleReport(target, true)); err != nil {
			t.Fatalf("saving report: %v", err)
		}
	}
	if err := sdb.SaveReport(ctx, sampleReport("https://other.example.com", true)); err != nil {
		t.Fatalf("saving report: %v", err)
	}

	history, err := sdb.GetHistory(ctx, target)
	if err != nil {
		t.Fatalf("getting history: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("got %d reports, expected 3", len(history))
	}
	for _, r := range history {
		if r.Target != target {
			t.Errorf("history contains foreign target %q", r.Target)
		}
	}
}

// TestListTargets tests distinct target listing.
func TestListTargets(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	ctx := context.Background()

	targets := []string{"https://b.example.com", "https://a.example.com", "https://b.example.com"}
	for _, target := range targets {
		if err := sdb.SaveReport(ctx, sampleReport(target, true)); err != nil {
			t.Fatalf("saving report: %v", err)
		}
	}

	got, err := sdb.ListTargets(ctx)
	if err != nil {
		t.Fatalf("listing targets: %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(got) != len(want) {
		t.Fatalf("ListTargets = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("target[%d] = %q, expected %q", i, got[i], want[i])
		}
	}
}

// TestRecentScreenings tests the history listing with limits.
func TestRecentScreenings(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	ctx := context.Background()

	for i := range 5 {
		safe := i%2 == 0
		if err := sdb.SaveReport(ctx, sampleReport("https://example.com", safe)); err != nil {
			t.Fatalf("saving report: %v", err)
		}
	}

	limited, err := sdb.RecentScreenings(ctx, 2)
	if err != nil {
		t.Fatalf("listing screenings: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d screenings, expected 2", len(limited))
	}

	all, err := sdb.RecentScreenings(ctx, 0)
	if err != nil {
		t.Fatalf("listing screenings: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d screenings, expected 5", len(all))
	}

	// Newest first: IDs descend.
	for i := 1; i < len(all); i++ {
		if all[i].ID > all[i-1].ID {
			t.Errorf("screenings not in reverse chronological order: %v", all)
			break
		}
	}

	meta := all[0]
	if meta.Target != "https://example.com" {
		t.Errorf("Target = %q", meta.Target)
	}
	if meta.ThreatCount != 1 || meta.WarningCount != 1 {
		t.Errorf("counts = %d/%d, expected 1/1", meta.ThreatCount, meta.WarningCount)
	}
	if meta.FetchedVia != "http" {
		t.Errorf("FetchedVia = %q", meta.FetchedVia)
	}
	if meta.ContentHash != "abc123" {
		t.Errorf("ContentHash = %q", meta.ContentHash)
	}
}

// TestGetReportByID tests primary-key lookups.
func TestGetReportByID(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	ctx := context.Background()

	if err := sdb.SaveReport(ctx, sampleReport("https://example.com", false)); err != nil {
		t.Fatalf("saving report: %v", err)
	}

	metas, err := sdb.RecentScreenings(ctx, 1)
	if err != nil || len(metas) != 1 {
		t.Fatalf("listing screenings: %v (%d rows)", err, len(metas))
	}

	report, err := sdb.GetReportByID(ctx, metas[0].ID)
	if err != nil {
		t.Fatalf("getting report: %v", err)
	}
	if report == nil || report.Target != "https://example.com" {
		t.Errorf("report = %+v", report)
	}

	missing, err := sdb.GetReportByID(ctx, 99999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}

// TestHasRecentScreening tests the freshness check.
func TestHasRecentScreening(t *testing.T) {
	t.Parallel()

	sdb := newTestDB(t)
	ctx := context.Background()
	target := "https://example.com"

	recent, err := sdb.HasRecentScreening(ctx, target, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recent {
		t.Error("unscreened target should not be recent")
	}

	if err := sdb.SaveReport(ctx, sampleReport(target, true)); err != nil {
		t.Fatalf("saving report: %v", err)
	}

	recent, err = sdb.HasRecentScreening(ctx, target, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !recent {
		t.Error("just-saved screening should be recent")
	}
}

// TestParseTimestamp tests the SQLite timestamp format fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input string
		valid bool
	}{
		{"2026-08-25 10:30:00", true},
		{"2026-08-25T10:30:00Z", true},
		{"2026-08-25T10:30:00", true},
		{"not a timestamp", false},
		{"", false},
	}

	for _, tc := range testCases {
		got := parseTimestamp(tc.input)
		if tc.valid && got.IsZero() {
			t.Errorf("parseTimestamp(%q) returned zero time", tc.input)
		}
		if !tc.valid && !got.IsZero() {
			t.Errorf("parseTimestamp(%q) = %v, expected zero time", tc.input, got)
		}
	}
}
