package adapters

import (
	"sort"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/taxonomy"
)

// bearerOutput is `bearer scan --format json`: findings bucketed by severity.
// The bucket key is the native severity token.
type bearerOutput map[string][]bearerFinding

type bearerFinding struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CWEIDs           []string `json:"cwe_ids"`
	Filename         string   `json:"filename"`
	FullFilename     string   `json:"full_filename"`
	LineNumber       int      `json:"line_number"`
	CodeExtract      string   `json:"code_extract"`
	DocumentationURL string   `json:"documentation_url"`
	Source           struct {
		Start  int `json:"start"`
		End    int `json:"end"`
		Column struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"column"`
	} `json:"source"`
}

// BearerAdapter reads Bearer CLI JSON reports.
type BearerAdapter struct {
	base
}

func NewBearerAdapter(classifier *taxonomy.Classifier) *BearerAdapter {
	return &BearerAdapter{base: newBase(taxonomy.ToolBearer, classifier)}
}

func (a *BearerAdapter) Adapt(payload []byte, repo RepositoryContext) Outcome {
	var out bearerOutput
	if err := a.decode(payload, &out); err != nil {
		return a.failure(err)
	}

	// Buckets are visited in sorted order so output order does not depend on map iteration.
	buckets := make([]string, 0, len(out))
	for bucket := range out {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)

	var natives []nativeFinding
	for _, bucket := range buckets {
		for _, f := range out[bucket] {
			natives = append(natives, a.native(bucket, f, repo))
		}
	}
	return a.collect(natives)
}

func (a *BearerAdapter) native(bucket string, f bearerFinding, repo RepositoryContext) nativeFinding {
	file := f.Filename
	if file == "" {
		file = f.FullFilename
	}
	start := f.Source.Start
	if start <= 0 {
		start = f.LineNumber
	}
	message := f.Title
	if message == "" {
		message = f.Description
	}
	return nativeFinding{
		ruleID:   f.ID,
		severity: bucket,
		message:  message,
		cwes:     f.CWEIDs,
		snippet:  f.CodeExtract,
		helpURI:  f.DocumentationURL,
		location: schemas.Location{
			Path:        RebasePath(repo.Root, file),
			StartLine:   positive(start),
			EndLine:     positive(f.Source.End),
			StartColumn: positive(f.Source.Column.Start),
			EndColumn:   positive(f.Source.Column.End),
		},
	}
}
