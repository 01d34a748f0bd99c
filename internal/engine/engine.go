package engine

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/adapters"
)

// Engine runs the comparison stages over a completed batch of tool results.
// It holds no mutable state; every call recomputes from its inputs.
type Engine struct {
	logger *zap.Logger
}

// New creates an Engine. A nil logger is replaced with a no-op one.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.With(zap.String("component", "comparison_engine"))}
}

// Compare builds a report from adapter outcomes. It must only be called once
// every adapter in the batch has returned. Failed outcomes are listed in
// Tools and ToolStatus but contribute no findings; a successful tool with
// zero findings participates with zero counts.
func (e *Engine) Compare(outcomes []adapters.Outcome) schemas.ComparisonReport {
	for _, o := range outcomes {
		if !o.Success {
			e.logger.Warn("Tool output excluded from comparison",
				zap.String("tool", o.Tool), zap.String("error", o.Error))
			continue
		}
		if o.Skipped > 0 {
			e.logger.Debug("Dropped findings without a rule id",
				zap.String("tool", o.Tool), zap.Int("skipped", o.Skipped))
		}
	}
	findingsByTool, statuses := MergeOutcomes(outcomes)
	return e.compare(findingsByTool, statuses)
}

// MergeOutcomes folds outcomes into one entry per tool. A tool that failed in
// any of its outcomes is failed as a whole, with the errors joined, zero
// findings and no findingsByTool entry.
func MergeOutcomes(outcomes []adapters.Outcome) (map[string][]schemas.Finding, map[string]schemas.ToolStatus) {
	findingsByTool := make(map[string][]schemas.Finding)
	statuses := make(map[string]schemas.ToolStatus)

	for _, o := range outcomes {
		status, seen := statuses[o.Tool]
		if !seen {
			status = schemas.ToolStatus{Success: true}
		}
		if !o.Success {
			status.Success = false
			status.Error = joinErrors(status.Error, o.Error)
			statuses[o.Tool] = status
			continue
		}
		findingsByTool[o.Tool] = append(findingsByTool[o.Tool], o.Findings...)
		status.FindingCount += len(o.Findings)
		statuses[o.Tool] = status
	}

	for tool, status := range statuses {
		if !status.Success {
			delete(findingsByTool, tool)
			status.FindingCount = 0
			statuses[tool] = status
		}
	}
	return findingsByTool, statuses
}

// CompareFindings builds a report from already canonical findings, as fetched
// from the store. runs, when given, restore the status of tools that failed
// and therefore have no stored findings. A successful run that reported zero
// findings empties the tool.
func (e *Engine) CompareFindings(findingsByTool map[string][]schemas.Finding, runs []schemas.ToolRun) schemas.ComparisonReport {
	statuses := make(map[string]schemas.ToolStatus, len(findingsByTool))
	included := make(map[string][]schemas.Finding, len(findingsByTool))
	for tool, findings := range findingsByTool {
		statuses[tool] = schemas.ToolStatus{Success: true, FindingCount: len(findings)}
		included[tool] = findings
	}
	for _, run := range runs {
		if run.Success {
			// The latest run wins over rows left behind by an earlier ingest.
			if _, ok := statuses[run.Tool]; !ok || run.FindingCount == 0 {
				statuses[run.Tool] = schemas.ToolStatus{Success: true}
				included[run.Tool] = nil
			}
			continue
		}
		delete(included, run.Tool)
		statuses[run.Tool] = schemas.ToolStatus{Success: false, Error: run.Error}
	}
	return e.compare(included, statuses)
}

func (e *Engine) compare(findingsByTool map[string][]schemas.Finding, statuses map[string]schemas.ToolStatus) schemas.ComparisonReport {
	tools := make([]string, 0, len(statuses))
	for tool := range statuses {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	overlap := DetectOverlap(findingsByTool)
	effectiveness := ComputeEffectiveness(findingsByTool, overlap)
	report := BuildReport(tools, overlap, effectiveness, findingsByTool)
	for tool, status := range statuses {
		report.ToolStatus[tool] = status
	}

	e.logger.Debug("Comparison complete",
		zap.Int("tools", len(tools)),
		zap.Int("total_unique_issues", overlap.Total),
		zap.Int("common_findings", len(overlap.Overlap)))
	return report
}

func joinErrors(existing, next string) string {
	switch {
	case existing == "":
		return next
	case next == "":
		return existing
	default:
		return strings.Join([]string{existing, next}, "; ")
	}
}
