package adapters

import (
	"bytes"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/taxonomy"
)

// gosecOutput mirrors `gosec -fmt=json`.
type gosecOutput struct {
	Issues []gosecIssue `json:"Issues"`
}

type gosecIssue struct {
	Severity   string `json:"severity"`
	Confidence string `json:"confidence"`
	CWE        struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"cwe"`
	RuleID  string    `json:"rule_id"`
	Details string    `json:"details"`
	File    string    `json:"file"`
	Code    string    `json:"code"`
	Line    lineRange `json:"line"`
	Column  lineRange `json:"column"`
}

// lineRange decodes gosec's positions, which arrive as "42", "42-44" or a bare number.
type lineRange struct {
	Start int
	End   int
}

func (l *lineRange) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = lineRange{}
		return nil
	}
	var raw string
	if trimmed[0] == '"' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
	} else {
		raw = string(trimmed)
	}
	*l = parseLineRange(raw)
	return nil
}

// parseLineRange is lenient: anything that is not a positive number reads as absent.
func parseLineRange(raw string) lineRange {
	first, second, hasRange := strings.Cut(strings.TrimSpace(raw), "-")
	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || start <= 0 {
		return lineRange{}
	}
	r := lineRange{Start: start, End: start}
	if hasRange {
		if end, err := strconv.Atoi(strings.TrimSpace(second)); err == nil && end >= start {
			r.End = end
		}
	}
	return r
}

// GosecAdapter reads gosec JSON reports.
type GosecAdapter struct {
	base
}

func NewGosecAdapter(classifier *taxonomy.Classifier) *GosecAdapter {
	return &GosecAdapter{base: newBase(taxonomy.ToolGosec, classifier)}
}

func (a *GosecAdapter) Adapt(payload []byte, repo RepositoryContext) Outcome {
	var out gosecOutput
	if err := a.decode(payload, &out); err != nil {
		return a.failure(err)
	}

	natives := make([]nativeFinding, 0, len(out.Issues))
	for _, issue := range out.Issues {
		var cwes []string
		if issue.CWE.ID != "" {
			cwes = []string{issue.CWE.ID}
		}
		natives = append(natives, nativeFinding{
			ruleID:     issue.RuleID,
			severity:   issue.Severity,
			message:    issue.Details,
			cwes:       cwes,
			confidence: issue.Confidence,
			snippet:    issue.Code,
			helpURI:    issue.CWE.URL,
			location: schemas.Location{
				Path:        RebasePath(repo.Root, issue.File),
				StartLine:   positive(issue.Line.Start),
				EndLine:     positive(issue.Line.End),
				StartColumn: positive(issue.Column.Start),
				EndColumn:   positive(issue.Column.End),
			},
		})
	}
	return a.collect(natives)
}
