package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/websentry/websentry/internal/config"
	"github.com/websentry/websentry/internal/database"
	"github.com/websentry/websentry/internal/model"
)

// Constants for risk direction in screening comparisons.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// This command inspects past screenings stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Inspect past screenings",
		Long: `History lists and compares screenings recorded in the database.

Without arguments it lists the most recent screenings across all targets.
With a target it lists that target's screening history, and --diff compares
the latest two screenings to show how the verdict changed: risk score delta,
new findings, resolved findings, and whether the page content itself changed
(by content hash).

Examples:
  # Show the 20 most recent screenings
  websentry history

  # Show all recorded screenings for one page
  websentry history https://example.com

  # Compare the latest two screenings of a page
  websentry history --diff https://example.com

  # List every target in the database
  websentry history --list-targets

  # Machine-readable output
  websentry history --json https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of screenings to list (0 for no limit)")
	cmd.Flags().BoolP("list-targets", "L", false,
		"List all screened targets in the database")
	cmd.Flags().BoolP("diff", "d", false,
		"Compare the latest two screenings of the given target")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listTargets, err := cmd.Flags().GetBool("list-targets")
	if err != nil {
		return err
	}
	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Diff requires a target before we touch the database.
	if diff && len(args) == 0 {
		return errors.New("a target is required with --diff")
	}

	// Open read-only: history never creates the database.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no screening history found (run 'websentry screen' first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch {
	case listTargets:
		return listScreenedTargets(ctx, db, jsonOutput)
	case diff:
		return diffScreenings(ctx, db, args[0], jsonOutput)
	case len(args) == 1:
		return listTargetHistory(ctx, db, args[0], jsonOutput)
	default:
		return listRecentScreenings(ctx, db, limit, jsonOutput)
	}
}

// listScreenedTargets lists all targets present in the database.
func listScreenedTargets(ctx context.Context, db *database.ScreenDB, jsonOutput bool) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if jsonOutput {
		return writeJSON(targets)
	}

	if len(targets) == 0 {
		fmt.Println("No screened targets found in the database.")
		fmt.Println("\nUse 'websentry screen <url>' to screen a page.")
		return nil
	}

	fmt.Printf("Screened targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Printf("  • %s\n", target)
	}
	fmt.Println("\nUse 'websentry history <url>' to see screenings for a target.")

	return nil
}

// listRecentScreenings lists the most recent screenings across targets.
func listRecentScreenings(ctx context.Context, db *database.ScreenDB, limit int, jsonOutput bool) error {
	metas, err := db.RecentScreenings(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list screenings: %w", err)
	}

	if jsonOutput {
		return writeJSON(metas)
	}

	if len(metas) == 0 {
		fmt.Println("No screenings recorded yet.")
		fmt.Println("\nUse 'websentry screen <url>' to screen a page.")
		return nil
	}

	fmt.Printf("Recent screenings (%d):\n\n", len(metas))
	printScreeningTable(metas)
	fmt.Println("\nUse 'websentry history <url>' for a single target, or --diff to compare.")

	return nil
}

// listTargetHistory lists all screenings for a single target.
func listTargetHistory(ctx context.Context, db *database.ScreenDB, target string, jsonOutput bool) error {
	metas, err := db.RecentScreenings(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list screenings: %w", err)
	}

	filtered := make([]database.ScreeningMetadata, 0, len(metas))
	for _, meta := range metas {
		if meta.Target == target {
			filtered = append(filtered, meta)
		}
	}

	if jsonOutput {
		return writeJSON(filtered)
	}

	if len(filtered) == 0 {
		fmt.Printf("No screening history found for %s\n", target)
		fmt.Println("\nUse 'websentry screen' to screen this page.")
		return nil
	}

	fmt.Printf("Screening history for %s (%d screenings):\n\n", target, len(filtered))
	printScreeningTable(filtered)
	fmt.Println("\nUse 'websentry history --diff <url>' to compare the latest two.")

	return nil
}

// printScreeningTable renders screening metadata as an aligned table.
func printScreeningTable(metas []database.ScreeningMetadata) {
	fmt.Printf("  %-6s  %-20s  %-8s  %-6s  %-12s  %s\n",
		"ID", "Date", "Verdict", "Score", "Findings", "Target")
	fmt.Println("  " + strings.Repeat("-", 90))

	for _, meta := range metas {
		verdict := "UNSAFE"
		if meta.Safe {
			verdict = "safe"
		}
		findings := fmt.Sprintf("T:%d W:%d", meta.ThreatCount, meta.WarningCount)
		fmt.Printf("  %-6d  %-20s  %-8s  %-6d  %-12s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			verdict,
			meta.RiskScore,
			findings,
			meta.Target,
		)
	}
}

// ScreeningDiff holds the result of comparing two screenings of the
// same target.
type ScreeningDiff struct {
	// Target is the compared URL or file path.
	Target string `json:"target"`

	// PreviousDate and CurrentDate are the screening timestamps.
	PreviousDate time.Time `json:"previous_date"`
	CurrentDate  time.Time `json:"current_date"`

	// ContentChanged reports whether the page HTML hash differs.
	ContentChanged bool `json:"content_changed"`

	// PreviousScore and CurrentScore are the risk scores.
	PreviousScore int `json:"previous_score"`
	CurrentScore  int `json:"current_score"`

	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// NewFindings are findings present now but not before.
	NewFindings []string `json:"new_findings,omitempty"`

	// ResolvedFindings are findings present before but not now.
	ResolvedFindings []string `json:"resolved_findings,omitempty"`
}

// diffScreenings compares the latest two screenings of a target.
func diffScreenings(ctx context.Context, db *database.ScreenDB, target string, jsonOutput bool) error {
	history, err := db.GetHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(history) < 2 {
		return fmt.Errorf("at least 2 screenings are required for comparison (found %d)", len(history))
	}

	// History is newest first.
	result := compareScreenings(history[1], history[0])

	if jsonOutput {
		return writeJSON(result)
	}

	fmt.Printf("Screening comparison: %s\n", result.Target)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nPrevious: %s (score %d)\n",
		result.PreviousDate.Format("2006-01-02 15:04:05"), result.PreviousScore)
	fmt.Printf("Current:  %s (score %d)\n",
		result.CurrentDate.Format("2006-01-02 15:04:05"), result.CurrentScore)

	fmt.Printf("\nRisk: %s\n", formatRiskDirection(result.Direction))
	if result.ContentChanged {
		fmt.Println("Page content changed between screenings.")
	} else {
		fmt.Println("Page content is unchanged.")
	}

	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] %s\n", f)
		}
	}
	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] %s\n", f)
		}
	}

	return nil
}

// compareScreenings builds the diff between two stored reports.
func compareScreenings(previous, current *model.ScreeningReport) *ScreeningDiff {
	result := &ScreeningDiff{
		Target:       current.Target,
		PreviousDate: previous.DateScreened,
		CurrentDate:  current.DateScreened,
	}

	result.PreviousScore = previous.RiskScore()
	result.CurrentScore = current.RiskScore()

	switch {
	case result.CurrentScore < result.PreviousScore:
		result.Direction = riskDirectionImproved
	case result.CurrentScore > result.PreviousScore:
		result.Direction = riskDirectionWorsened
	default:
		result.Direction = riskDirectionUnchanged
	}

	if previous.Page != nil && current.Page != nil {
		result.ContentChanged = previous.Page.Hash != current.Page.Hash
	}

	previousFindings := findingSet(previous)
	currentFindings := findingSet(current)

	// Walk the ordered finding lists rather than the membership sets so
	// diff output keeps rule evaluation order across runs.
	for _, f := range orderedFindings(current) {
		if !previousFindings[f] {
			result.NewFindings = append(result.NewFindings, f)
		}
	}
	for _, f := range orderedFindings(previous) {
		if !currentFindings[f] {
			result.ResolvedFindings = append(result.ResolvedFindings, f)
		}
	}

	return result
}

// orderedFindings returns all finding descriptions of a report, threats
// first, in rule evaluation order.
func orderedFindings(report *model.ScreeningReport) []string {
	if report.Result == nil {
		return nil
	}
	findings := make([]string, 0, len(report.Result.Threats)+len(report.Result.Warnings))
	findings = append(findings, report.Result.Threats...)
	findings = append(findings, report.Result.Warnings...)
	return findings
}

// findingSet collects all finding descriptions of a report.
func findingSet(report *model.ScreeningReport) map[string]bool {
	set := make(map[string]bool)
	if report.Result == nil {
		return set
	}
	for _, f := range report.Result.Threats {
		set[f] = true
	}
	for _, f := range report.Result.Warnings {
		set[f] = true
	}
	return set
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// writeJSON pretty-prints a value to stdout.
func writeJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
