package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/websentry/websentry/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScreeningReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeVerdict(md, report)
	w.writeFindings(md, report)
	w.writeNarrative(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteAll outputs each report in sequence.
func (w *MarkdownWriter) WriteAll(reports []*model.ScreeningReport) (int, error) {
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
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScreeningReport) {
	md.H1("WebSentry Screening Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + report.Target + "`"},
		{"Screened At", report.DateScreened.Format("2006-01-02 15:04:05 MST")},
		{"Status", w.getStatusText(report)},
	}
	if report.Page != nil && report.Page.Title != "" {
		rows = append(rows, []string{"Page Title", report.Page.Title})
	}
	if report.FetchedVia != "" {
		rows = append(rows, []string{"Fetched Via", report.FetchedVia})
	}
	if report.ScreenshotPath != "" {
		rows = append(rows, []string{"Screenshot", "`" + report.ScreenshotPath + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.ScreeningReport) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeVerdict writes the safety verdict section.
func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, report *model.ScreeningReport) {
	if report.Result == nil {
		return
	}

	md.H2("Verdict")
	md.PlainText("")

	verdict := "🔴 Unsafe"
	if report.Result.Safe {
		verdict = "🟢 Safe"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Risk Score", "Threats", "Warnings"},
		Rows: [][]string{{
			verdict,
			strconv.Itoa(report.Result.RiskScore) + "/100",
			strconv.Itoa(report.Result.ThreatCount()),
			strconv.Itoa(report.Result.WarningCount()),
		}},
	})
	md.PlainText("")

	// Add pie chart if there are findings
	if report.Result.HasFindings() {
		w.writePieChart(md, report.Result)
	}

	w.writeAlert(md, report.Result)
}

// writePieChart writes a mermaid pie chart for the finding distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *model.ScreeningResult) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Distribution"),
		piechart.WithShowData(true),
	)

	if result.ThreatCount() > 0 {
		chart.LabelAndIntValue("Threats", uint64(result.ThreatCount()))
	}
	if result.WarningCount() > 0 {
		chart.LabelAndIntValue("Warnings", uint64(result.WarningCount()))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the verdict.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.ScreeningResult) {
	switch {
	case !result.Safe:
		md.Cautionf(
			"This page is unsafe for automated consumption. Risk score %d crossed the threshold with %d threat(s) detected.",
			result.RiskScore,
			result.ThreatCount(),
		)
	case result.ThreatCount() > 0:
		md.Warningf(
			"%d threat(s) detected but the accumulated score stayed below the threshold. Review before trusting the content.",
			result.ThreatCount(),
		)
	case result.WarningCount() > 0:
		md.Importantf(
			"%d warning(s) raised. Nothing conclusive, but the markup has suspicious traits.",
			result.WarningCount(),
		)
	default:
		md.Tip("No suspicious content detected.")
	}
	md.PlainText("")
}

// writeFindings writes the threat and warning sections.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.ScreeningReport) {
	if report.Result == nil {
		return
	}

	md.H2("Findings")
	md.PlainText("")

	if !report.Result.HasFindings() {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	if len(report.Result.Threats) > 0 {
		md.PlainText("### 🔴 Threats")
		md.PlainText("")
		md.BulletList(report.Result.Threats...)
		md.PlainText("")
	}
	if len(report.Result.Warnings) > 0 {
		md.PlainText("### 🟡 Warnings")
		md.PlainText("")
		md.BulletList(report.Result.Warnings...)
		md.PlainText("")
	}
}

// writeNarrative writes the screener's narrative summary as a quote.
func (w *MarkdownWriter) writeNarrative(md *markdown.Markdown, report *model.ScreeningReport) {
	if report.Result == nil || report.Result.Report == "" {
		return
	}

	md.H2("Summary")
	md.PlainText("")
	md.Blockquote(report.Result.Report)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [WebSentry](https://github.com/websentry/websentry)*")
}
