package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/observability"
)

// MarkdownReporter renders reports as Markdown tables for pull request
// comments and CI summaries.
type MarkdownReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	mu     sync.Mutex
}

// NewMarkdownReporter creates a reporter that writes Markdown output.
func NewMarkdownReporter(writer io.WriteCloser) *MarkdownReporter {
	return &MarkdownReporter{
		writer: writer,
		logger: observability.GetLogger().Named("markdown_reporter"),
	}
}

// Write renders the report immediately.
func (r *MarkdownReporter) Write(report *schemas.ComparisonReport) error {
	doc := RenderMarkdown(report)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := io.WriteString(r.writer, doc); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (r *MarkdownReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}

// RenderMarkdown formats a report. Tools and categories appear in report order.
func RenderMarkdown(report *schemas.ComparisonReport) string {
	var b strings.Builder

	b.WriteString("# SAST Tool Comparison\n\n")
	if report.RepositoryID != "" {
		fmt.Fprintf(&b, "- Repository: `%s`\n", report.RepositoryID)
	}
	if report.GeneratedAt != nil {
		fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Total unique issues: **%d**\n", report.Overlap.TotalUniqueIssues)
	fmt.Fprintf(&b, "- Found by more than one tool: %d\n", report.Overlap.CommonFindings)
	fmt.Fprintf(&b, "- Found by exactly one tool: %d\n\n", report.Overlap.UniqueFindings)

	if len(report.Tools) == 0 {
		b.WriteString("_No tool results were provided._\n")
		return b.String()
	}

	b.WriteString("## Effectiveness\n\n")
	b.WriteString("| Tool | Status | Total | Unique | Shared | Uniqueness | Critical | High | Medium | Low |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, tool := range report.Tools {
		m := report.Effectiveness[tool]
		sev := report.BySeverity[tool]
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s%% | %d | %d | %d | %d |\n",
			escapeCell(tool), statusCell(report.ToolStatus[tool]),
			m.TotalDetections, m.UniqueDetections, m.SharedDetections,
			strconv.FormatFloat(m.UniquenessRate, 'f', 2, 64),
			sev.Critical, sev.High, sev.Medium, sev.Low)
	}

	b.WriteString("\n## Findings by category\n\n")
	b.WriteString("| Category |")
	for _, tool := range report.Tools {
		fmt.Fprintf(&b, " %s |", escapeCell(tool))
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---:|", len(report.Tools)))
	b.WriteString("\n")
	for _, category := range schemas.Categories() {
		var row strings.Builder
		seen := false
		for _, tool := range report.Tools {
			n := report.ByCategory[tool][category]
			if n > 0 {
				seen = true
			}
			fmt.Fprintf(&row, " %d |", n)
		}
		if seen {
			fmt.Fprintf(&b, "| %s |%s\n", category, row.String())
		}
	}

	if len(report.DetailedOverlap) > 0 {
		b.WriteString("\n## Shared findings\n\n")
		writeGroupTable(&b, report.DetailedOverlap)
	}
	if len(report.DetailedUnique) > 0 {
		b.WriteString("\n## Unique findings\n\n")
		writeGroupTable(&b, report.DetailedUnique)
	}
	return b.String()
}

func writeGroupTable(b *strings.Builder, groups []schemas.OverlapGroup) {
	b.WriteString("| Rule | Location | Severity | Category | Detected by |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, g := range groups {
		f := g.RepresentativeFinding
		fmt.Fprintf(b, "| `%s` | `%s` | %s | %s | %s |\n",
			escapeCell(f.RuleID), escapeCell(locationCell(f.Location)),
			f.Severity, f.Category, escapeCell(strings.Join(g.Tools(), ", ")))
	}
}

func statusCell(status schemas.ToolStatus) string {
	if status.Success {
		return "ok"
	}
	if status.Error == "" {
		return "failed"
	}
	return "failed: " + escapeCell(status.Error)
}

func locationCell(loc schemas.Location) string {
	if loc.StartLine == nil {
		return loc.Path
	}
	return loc.Path + ":" + strconv.Itoa(*loc.StartLine)
}

// escapeCell keeps a value inside its table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
