package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/websentry/websentry/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output: content hash,
	// retrieval method, and the sanitized content length.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScreeningReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeVerdict(&sb, report)
	w.writeFindings(&sb, report)
	w.writeNarrative(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs each report in sequence.
func (w *SimpleWriter) WriteAll(reports []*model.ScreeningReport) (int, error) {
	var total int
	for _, report := range reports {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeHeader writes the report header with target information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScreeningReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      WEBSENTRY SCREENING REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target:         %s\n", report.Target))
	sb.WriteString(fmt.Sprintf("Screened At:    %s\n", report.DateScreened.Format("2006-01-02 15:04:05 MST")))

	if report.Page != nil && report.Page.Title != "" {
		sb.WriteString(fmt.Sprintf("Page Title:     %s\n", report.Page.Title))
	}
	if report.ScreenshotPath != "" {
		sb.WriteString(fmt.Sprintf("Screenshot:     %s\n", report.ScreenshotPath))
	}
	if w.verbose {
		if report.FetchedVia != "" {
			sb.WriteString(fmt.Sprintf("Fetched Via:    %s\n", report.FetchedVia))
		}
		if report.Page != nil && report.Page.Hash != "" {
			sb.WriteString(fmt.Sprintf("Content Hash:   %s\n", report.Page.Hash))
		}
	}

	if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.ErrorMessage))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeVerdict writes the safety verdict section.
func (w *SimpleWriter) writeVerdict(sb *strings.Builder, report *model.ScreeningReport) {
	if report.Result == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VERDICT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if report.Result.Safe {
		sb.WriteString("  [OK]     SAFE\n")
	} else {
		sb.WriteString("  [DANGER] UNSAFE\n")
	}
	sb.WriteString(fmt.Sprintf("  Risk Score: %d/100\n", report.Result.RiskScore))
	if w.verbose {
		sb.WriteString(fmt.Sprintf("  Sanitized Content: %d bytes\n", len(report.Result.SanitizedContent)))
	}
	sb.WriteString("\n")
}

// writeFindings writes the threat and warning sections.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.ScreeningReport) {
	if report.Result == nil {
		return
	}
	if !report.Result.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	w.writeFindingList(sb, "!!", "THREATS", report.Result.Threats)
	w.writeFindingList(sb, "!", "WARNINGS", report.Result.Warnings)
}

// writeFindingList writes one category of findings.
func (w *SimpleWriter) writeFindingList(sb *strings.Builder, indicator, label string, findings []string) {
	if len(findings) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, label))
	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}
	for _, f := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", f))
	}
	sb.WriteString("\n")
}

// writeNarrative writes the screener's narrative summary.
func (w *SimpleWriter) writeNarrative(sb *strings.Builder, report *model.ScreeningReport) {
	if report.Result == nil || report.Result.Report == "" {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
	sb.WriteString(report.Result.Report)
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by WebSentry\n")
	sb.WriteString("https://github.com/websentry/websentry\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
