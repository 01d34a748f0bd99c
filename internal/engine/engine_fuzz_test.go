//go:build go1.18
// +build go1.18

package engine

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// FuzzCompareFindings checks the partition and rate invariants over generated batches.
func FuzzCompareFindings(f *testing.F) {
	e := New(nil)
	f.Fuzz(func(t *testing.T, data []byte) {
		input, ok := generateBatch(fuzz.NewConsumer(data))
		if !ok {
			return
		}

		report := e.CompareFindings(input, nil)
		o := report.Overlap
		if o.CommonFindings+o.UniqueFindings != o.TotalUniqueIssues {
			t.Fatalf("partition incomplete: %+v", o)
		}
		if len(report.Tools) != len(input) {
			t.Fatalf("tools %d, want %d", len(report.Tools), len(input))
		}
		for tool, m := range report.Effectiveness {
			if m.UniquenessRate < 0 || m.UniquenessRate > 100 {
				t.Fatalf("%s: uniqueness rate %v out of bounds", tool, m.UniquenessRate)
			}
			if m.TotalDetections == 0 && m.UniquenessRate != 0 {
				t.Fatalf("%s: non-zero rate without detections", tool)
			}
		}
		for _, g := range append(report.DetailedOverlap, report.DetailedUnique...) {
			if len(g.DetectedBy) == 0 {
				t.Fatalf("group %q has no detecting tool", g.Fingerprint)
			}
		}
	})
}

// generateBatch draws a small batch from the small alphabets below so that
// collisions across and within tools are common.
func generateBatch(c *fuzz.ConsumeFuzzer) (map[string][]schemas.Finding, bool) {
	tools := []string{"semgrep", "codeql", "snyk", "bearer", "gosec"}
	rules := []string{"r1", "r2", ""}
	paths := []string{"a.go", "b/c.go"}
	categories := schemas.Categories()

	n, err := c.GetInt()
	if err != nil {
		return nil, false
	}
	input := make(map[string][]schemas.Finding)
	for i := 0; i < n%64; i++ {
		picks := make([]int, 5)
		for j := range picks {
			v, err := c.GetInt()
			if err != nil {
				return input, true
			}
			if v < 0 {
				v = -(v + 1)
			}
			picks[j] = v
		}
		tool := tools[picks[0]%len(tools)]
		f := schemas.Finding{
			RuleID:   rules[picks[1]%len(rules)],
			Category: categories[picks[2]%len(categories)],
			Location: schemas.Location{Path: paths[picks[3]%len(paths)]},
			ToolName: tool,
		}
		if line := picks[4] % 4; line > 0 {
			f.Location.StartLine = schemas.IntPtr(line)
		}
		input[tool] = append(input[tool], f)
	}
	return input, true
}
