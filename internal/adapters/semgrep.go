package adapters

import (
	"strings"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/taxonomy"
)

// semgrepOutput mirrors the parts of `semgrep --json` we read.
type semgrepOutput struct {
	Results []semgrepResult `json:"results"`
}

type semgrepResult struct {
	CheckID string          `json:"check_id"`
	Path    string          `json:"path"`
	Start   semgrepPosition `json:"start"`
	End     semgrepPosition `json:"end"`
	Extra   struct {
		Message  string `json:"message"`
		Severity string `json:"severity"`
		Lines    string `json:"lines"`
		Metadata struct {
			CWE                stringList `json:"cwe"`
			OWASP              stringList `json:"owasp"`
			Confidence         string     `json:"confidence"`
			VulnerabilityClass stringList `json:"vulnerability_class"`
			Source             string     `json:"source"`
		} `json:"metadata"`
	} `json:"extra"`
}

type semgrepPosition struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// SemgrepAdapter reads semgrep's native JSON report.
type SemgrepAdapter struct {
	base
}

func NewSemgrepAdapter(classifier *taxonomy.Classifier) *SemgrepAdapter {
	return &SemgrepAdapter{base: newBase(taxonomy.ToolSemgrep, classifier)}
}

func (a *SemgrepAdapter) Adapt(payload []byte, repo RepositoryContext) Outcome {
	var out semgrepOutput
	if err := a.decode(payload, &out); err != nil {
		return a.failure(err)
	}

	natives := make([]nativeFinding, 0, len(out.Results))
	for _, r := range out.Results {
		meta := r.Extra.Metadata
		natives = append(natives, nativeFinding{
			ruleID:     r.CheckID,
			severity:   r.Extra.Severity,
			message:    r.Extra.Message,
			category:   firstVocabularyCategory(meta.VulnerabilityClass),
			cwes:       meta.CWE,
			owasp:      meta.OWASP,
			confidence: meta.Confidence,
			snippet:    semgrepSnippet(r.Extra.Lines),
			helpURI:    meta.Source,
			location: schemas.Location{
				Path:        RebasePath(repo.Root, r.Path),
				StartLine:   positive(r.Start.Line),
				EndLine:     positive(r.End.Line),
				StartColumn: positive(r.Start.Col),
				EndColumn:   positive(r.End.Col),
			},
		})
	}
	return a.collect(natives)
}

// firstVocabularyCategory picks the first class that is a vocabulary name.
func firstVocabularyCategory(classes []string) string {
	for _, c := range classes {
		if cat, ok := schemas.ParseCategory(c); ok {
			return string(cat)
		}
	}
	return ""
}

// semgrepSnippet drops the placeholder semgrep prints for logged-out users.
func semgrepSnippet(lines string) string {
	if strings.TrimSpace(lines) == "requires login" {
		return ""
	}
	return lines
}
