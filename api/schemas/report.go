package schemas

import (
	"encoding/json"
	"sort"
	"time"
)

// -- Comparison Report Schemas --

// OverlapGroup collects every tool that reported the same fingerprint.
// DetectedBy has set semantics: a tool appears at most once.
type OverlapGroup struct {
	Fingerprint           string
	RepresentativeFinding Finding
	DetectedBy            map[string]struct{}
}

// NewOverlapGroup starts a group from the first finding seen for a fingerprint.
func NewOverlapGroup(fingerprint string, representative Finding) *OverlapGroup {
	return &OverlapGroup{
		Fingerprint:           fingerprint,
		RepresentativeFinding: representative,
		DetectedBy:            make(map[string]struct{}),
	}
}

// Add records that tool reported this fingerprint. Repeated calls for the
// same tool are no-ops.
func (g *OverlapGroup) Add(tool string) {
	if g.DetectedBy == nil {
		g.DetectedBy = make(map[string]struct{})
	}
	g.DetectedBy[tool] = struct{}{}
}

// Tools returns the detecting tools in sorted order.
func (g OverlapGroup) Tools() []string {
	tools := make([]string, 0, len(g.DetectedBy))
	for t := range g.DetectedBy {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// DetectedByTool reports whether tool contributed to the group.
func (g OverlapGroup) DetectedByTool(tool string) bool {
	_, ok := g.DetectedBy[tool]
	return ok
}

// Shared is true when more than one distinct tool reported the fingerprint.
func (g OverlapGroup) Shared() bool {
	return len(g.DetectedBy) > 1
}

type overlapGroupJSON struct {
	Fingerprint           string   `json:"fingerprint"`
	RepresentativeFinding Finding  `json:"representative_finding"`
	DetectedBy            []string `json:"detected_by"`
}

// MarshalJSON renders DetectedBy as a sorted array.
func (g OverlapGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(overlapGroupJSON{
		Fingerprint:           g.Fingerprint,
		RepresentativeFinding: g.RepresentativeFinding,
		DetectedBy:            g.Tools(),
	})
}

// UnmarshalJSON restores the DetectedBy set from its array form.
func (g *OverlapGroup) UnmarshalJSON(data []byte) error {
	var raw overlapGroupJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Fingerprint = raw.Fingerprint
	g.RepresentativeFinding = raw.RepresentativeFinding
	g.DetectedBy = make(map[string]struct{}, len(raw.DetectedBy))
	for _, t := range raw.DetectedBy {
		g.DetectedBy[t] = struct{}{}
	}
	return nil
}

// ToolMetrics holds the effectiveness numbers for a single tool.
// Unique and shared detections count overlap groups, not raw findings, so
// their sum can be lower than TotalDetections when a tool repeats itself.
type ToolMetrics struct {
	TotalDetections  int `json:"total_detections"`
	UniqueDetections int `json:"unique_detections"`
	SharedDetections int `json:"shared_detections"`
	// UniquenessRate is a percentage rounded to two decimals for presentation.
	UniquenessRate float64 `json:"uniqueness_rate"`
}

// ExactUniquenessRate recomputes the unrounded percentage from the counts.
func (m ToolMetrics) ExactUniquenessRate() float64 {
	if m.TotalDetections <= 0 {
		return 0
	}
	return float64(m.UniqueDetections) / float64(m.TotalDetections) * 100
}

// OverlapSummary is the headline section of a comparison.
type OverlapSummary struct {
	CommonFindings    int `json:"common_findings"`
	UniqueFindings    int `json:"unique_findings"`
	TotalUniqueIssues int `json:"total_unique_issues"`
}

// SeverityBreakdown counts a tool's findings per canonical severity.
type SeverityBreakdown struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Increment bumps the counter for s. Anything outside the scale counts as medium.
func (b *SeverityBreakdown) Increment(s Severity) {
	switch s {
	case SeverityCritical:
		b.Critical++
	case SeverityHigh:
		b.High++
	case SeverityLow:
		b.Low++
	default:
		b.Medium++
	}
}

// Total sums all four levels.
func (b SeverityBreakdown) Total() int {
	return b.Critical + b.High + b.Medium + b.Low
}

// ToolStatus records whether a tool's output could be used.
type ToolStatus struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	FindingCount int    `json:"finding_count"`
}

// ComparisonReport is the document handed to presentation layers.
type ComparisonReport struct {
	ComparisonID    string                       `json:"comparison_id,omitempty"`
	RepositoryID    string                       `json:"repository_id,omitempty"`
	GeneratedAt     *time.Time                   `json:"generated_at,omitempty"`
	Tools           []string                     `json:"tools"`
	ToolStatus      map[string]ToolStatus        `json:"tool_status"`
	Overlap         OverlapSummary               `json:"overlap"`
	Effectiveness   map[string]ToolMetrics       `json:"effectiveness"`
	BySeverity      map[string]SeverityBreakdown `json:"by_severity"`
	ByCategory      map[string]map[Category]int  `json:"by_category"`
	DetailedOverlap []OverlapGroup               `json:"detailed_overlap"`
	DetailedUnique  []OverlapGroup               `json:"detailed_unique"`
}
