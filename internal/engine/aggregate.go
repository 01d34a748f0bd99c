package engine

import (
	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// BuildReport shapes already computed results into a ComparisonReport. Every
// listed tool gets a full severity and category breakdown, zeros included.
// Tool status defaults to success with the tool's finding count; callers
// that know better overwrite it.
func BuildReport(
	tools []string,
	overlap OverlapResult,
	effectiveness map[string]schemas.ToolMetrics,
	findingsByTool map[string][]schemas.Finding,
) schemas.ComparisonReport {
	report := schemas.ComparisonReport{
		Tools:      append([]string{}, tools...),
		ToolStatus: make(map[string]schemas.ToolStatus, len(tools)),
		Overlap: schemas.OverlapSummary{
			CommonFindings:    len(overlap.Overlap),
			UniqueFindings:    len(overlap.Unique),
			TotalUniqueIssues: overlap.Total,
		},
		Effectiveness:   make(map[string]schemas.ToolMetrics, len(tools)),
		BySeverity:      make(map[string]schemas.SeverityBreakdown, len(tools)),
		ByCategory:      make(map[string]map[schemas.Category]int, len(tools)),
		DetailedOverlap: nonNilGroups(overlap.Overlap),
		DetailedUnique:  nonNilGroups(overlap.Unique),
	}

	for _, tool := range tools {
		findings := findingsByTool[tool]
		report.ToolStatus[tool] = schemas.ToolStatus{Success: true, FindingCount: len(findings)}
		report.Effectiveness[tool] = effectiveness[tool]
		report.BySeverity[tool] = severityBreakdown(findings)
		report.ByCategory[tool] = categoryBreakdown(findings)
	}
	return report
}

func severityBreakdown(findings []schemas.Finding) schemas.SeverityBreakdown {
	var b schemas.SeverityBreakdown
	for _, f := range findings {
		b.Increment(f.Severity)
	}
	return b
}

// categoryBreakdown counts per category with every vocabulary entry present.
// Categories outside the vocabulary count as Other.
func categoryBreakdown(findings []schemas.Finding) map[schemas.Category]int {
	counts := make(map[schemas.Category]int, len(schemas.Categories()))
	for _, c := range schemas.Categories() {
		counts[c] = 0
	}
	for _, f := range findings {
		c, ok := schemas.ParseCategory(string(f.Category))
		if !ok {
			c = schemas.CategoryOther
		}
		counts[c]++
	}
	return counts
}

func nonNilGroups(groups []schemas.OverlapGroup) []schemas.OverlapGroup {
	if groups == nil {
		return []schemas.OverlapGroup{}
	}
	return groups
}
