package schemas_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// TestStructJSONTags uses reflection to verify that the `json` tags on struct fields
// are correct. Presentation layers consume these names directly.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:      "Finding",
			structRef: schemas.Finding{},
			expectedTags: map[string]string{
				"ID":       "id,omitempty",
				"RuleID":   "rule_id",
				"Severity": "severity",
				"Category": "category",
				"Location": "location",
				"Message":  "message",
				"ToolName": "tool_name",
				"Metadata": "metadata,omitempty",
			},
		},
		{
			name:      "Location",
			structRef: schemas.Location{},
			expectedTags: map[string]string{
				"Path":        "path",
				"StartLine":   "start_line",
				"EndLine":     "end_line",
				"StartColumn": "start_column",
				"EndColumn":   "end_column",
			},
		},
		{
			name:      "ToolMetrics",
			structRef: schemas.ToolMetrics{},
			expectedTags: map[string]string{
				"TotalDetections":  "total_detections",
				"UniqueDetections": "unique_detections",
				"SharedDetections": "shared_detections",
				"UniquenessRate":   "uniqueness_rate",
			},
		},
		{
			name:      "OverlapSummary",
			structRef: schemas.OverlapSummary{},
			expectedTags: map[string]string{
				"CommonFindings":    "common_findings",
				"UniqueFindings":    "unique_findings",
				"TotalUniqueIssues": "total_unique_issues",
			},
		},
		{
			name:      "ComparisonReport",
			structRef: schemas.ComparisonReport{},
			expectedTags: map[string]string{
				"RepositoryID":    "repository_id,omitempty",
				"GeneratedAt":     "generated_at,omitempty",
				"Tools":           "tools",
				"ToolStatus":      "tool_status",
				"Overlap":         "overlap",
				"Effectiveness":   "effectiveness",
				"BySeverity":      "by_severity",
				"ByCategory":      "by_category",
				"DetailedOverlap": "detailed_overlap",
				"DetailedUnique":  "detailed_unique",
			},
		},
		{
			name:      "ToolOutput",
			structRef: schemas.ToolOutput{},
			expectedTags: map[string]string{
				"Tool":           "tool",
				"Success":        "success",
				"RepositoryPath": "repository_path",
				"Error":          "error,omitempty",
				"Payload":        "payload,omitempty",
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			typ := reflect.TypeOf(tc.structRef)
			assert.Equal(t, len(tc.expectedTags), typ.NumField(), "field count drifted for %s", tc.name)
			for fieldName, expectedTag := range tc.expectedTags {
				field, ok := typ.FieldByName(fieldName)
				if assert.True(t, ok, "Field %s not found in struct %s", fieldName, tc.name) {
					assert.Equal(t, expectedTag, field.Tag.Get("json"), "JSON tag mismatch for field %s", fieldName)
				}
			}
		})
	}
}

func TestOverlapGroupJSON(t *testing.T) {
	t.Parallel()

	g := schemas.NewOverlapGroup("xss-1::index.js::15::XSS", schemas.Finding{RuleID: "xss-1"})
	g.Add("semgrep")
	g.Add("codeql")
	g.Add("semgrep")

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []interface{}{"codeql", "semgrep"}, raw["detected_by"], "detected_by should be a sorted, de-duplicated array")
	assert.Equal(t, "xss-1::index.js::15::XSS", raw["fingerprint"])

	var decoded schemas.OverlapGroup
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Shared())
	assert.True(t, decoded.DetectedByTool("codeql"))
	assert.Equal(t, []string{"codeql", "semgrep"}, decoded.Tools())
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	c, ok := schemas.ParseCategory("  sql injection ")
	assert.True(t, ok)
	assert.Equal(t, schemas.CategorySQLInjection, c)

	_, ok = schemas.ParseCategory("Cross-Site-Scripting (XSS)")
	assert.False(t, ok, "names outside the vocabulary must not be accepted")

	_, ok = schemas.ParseCategory("")
	assert.False(t, ok)
}

func TestFindingConfidenceDefaultsToMedium(t *testing.T) {
	t.Parallel()

	assert.Equal(t, schemas.ConfidenceMedium, schemas.Finding{}.Confidence())
	f := schemas.Finding{Metadata: map[string]any{schemas.MetaConfidence: schemas.ConfidenceHigh}}
	assert.Equal(t, schemas.ConfidenceHigh, f.Confidence())
}

func TestToolMetricsExactRate(t *testing.T) {
	t.Parallel()

	m := schemas.ToolMetrics{TotalDetections: 3, UniqueDetections: 1, UniquenessRate: 33.33}
	assert.InDelta(t, 100.0/3.0, m.ExactUniquenessRate(), 1e-12)
	assert.Equal(t, 0.0, schemas.ToolMetrics{}.ExactUniquenessRate())
}
