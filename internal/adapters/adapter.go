// internal/adapters/adapter.go
package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/taxonomy"
)

// ErrUnknownTool is returned when no adapter is registered for a tool name.
var ErrUnknownTool = errors.New("no adapter registered for tool")

// RepositoryContext carries what an adapter needs to know about the scanned
// repository. Root is used to rebase absolute paths.
type RepositoryContext struct {
	Root         string
	RepositoryID string
}

// Outcome is the result of adapting one tool's output. Findings is empty
// whenever Success is false.
type Outcome struct {
	Tool     string
	Findings []schemas.Finding
	Success  bool
	Error    string
	// Skipped counts native records dropped because they carried no rule id.
	Skipped int
}

// Adapter turns one tool's raw output into canonical findings. Implementations
// hold no mutable state and are safe for concurrent use. Adapt must be total:
// malformed input yields a failed Outcome, never a panic.
type Adapter interface {
	Name() string
	Kind() taxonomy.ToolKind
	Adapt(payload []byte, repo RepositoryContext) Outcome
}

// AdaptOutput applies an adapter to a tool output record. A record marked as
// unsuccessful is reported as a failure without parsing its payload. The
// record's repository_path, when present, is the rebasing root; a relative
// one is resolved against the context root.
func AdaptOutput(a Adapter, out schemas.ToolOutput, repo RepositoryContext) Outcome {
	if !out.Success {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = "tool reported failure"
		}
		return Failed(a.Name(), msg)
	}
	repo.Root = ResolveRoot(repo.Root, out.RepositoryPath)
	return a.Adapt(out.Payload, repo)
}

// Failed builds an unsuccessful Outcome.
func Failed(tool, msg string) Outcome {
	return Outcome{Tool: tool, Findings: []schemas.Finding{}, Success: false, Error: msg}
}

// base holds what every adapter shares: its identity and the classifier used
// when a tool does not categorize a finding itself.
type base struct {
	name       string
	kind       taxonomy.ToolKind
	classifier *taxonomy.Classifier
}

func newBase(kind taxonomy.ToolKind, classifier *taxonomy.Classifier) base {
	if classifier == nil {
		classifier = taxonomy.DefaultClassifier()
	}
	return base{name: kind.String(), kind: kind, classifier: classifier}
}

func (b base) Name() string            { return b.name }
func (b base) Kind() taxonomy.ToolKind { return b.kind }

// decode unmarshals payload into v. An empty payload is not an error: the
// tool ran and produced nothing.
func (b base) decode(payload []byte, v interface{}) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to parse %s output: %w", b.name, err)
	}
	return nil
}

func (b base) success(findings []schemas.Finding, skipped int) Outcome {
	if findings == nil {
		findings = []schemas.Finding{}
	}
	return Outcome{Tool: b.name, Findings: findings, Success: true, Skipped: skipped}
}

func (b base) failure(err error) Outcome {
	return Failed(b.name, err.Error())
}

// nativeFinding is the intermediate every adapter fills from its own payload
// before canonicalization.
type nativeFinding struct {
	ruleID     string
	severity   string
	message    string
	category   string
	cwes       []string
	owasp      []string
	confidence string
	snippet    string
	helpURI    string
	location   schemas.Location
}

// canonical maps a native record onto the canonical schema. The tool's own
// category is honoured only when it names a vocabulary category or a
// catalogued CWE; everything else goes through the keyword classifier.
func (b base) canonical(n nativeFinding) schemas.Finding {
	ruleID := strings.TrimSpace(n.ruleID)
	cwes := taxonomy.NormalizeCWEs(n.cwes)

	existing, ok := schemas.ParseCategory(n.category)
	if !ok {
		existing = taxonomy.CategoryForCWEs(cwes)
	}

	meta := map[string]any{
		schemas.MetaConfidence: normalizeConfidence(n.confidence),
	}
	if len(cwes) > 0 {
		meta[schemas.MetaCWE] = cwes
	}
	if len(n.owasp) > 0 {
		meta[schemas.MetaOWASP] = n.owasp
	}
	if s := strings.TrimSpace(n.snippet); s != "" {
		meta[schemas.MetaSnippet] = s
	}
	if n.helpURI != "" {
		meta[schemas.MetaHelpURI] = n.helpURI
	}

	return schemas.Finding{
		RuleID:   ruleID,
		Severity: b.kind.Severity(n.severity),
		Category: b.classifier.Classify(ruleID, n.message, existing),
		Location: n.location,
		Message:  strings.TrimSpace(n.message),
		ToolName: b.name,
		Metadata: meta,
	}
}

// collect canonicalizes natives, dropping the ones without a rule id.
func (b base) collect(natives []nativeFinding) Outcome {
	findings := make([]schemas.Finding, 0, len(natives))
	skipped := 0
	for _, n := range natives {
		if strings.TrimSpace(n.ruleID) == "" {
			skipped++
			continue
		}
		findings = append(findings, b.canonical(n))
	}
	return b.success(findings, skipped)
}

func normalizeConfidence(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HIGH", "VERY-HIGH", "VERY_HIGH":
		return schemas.ConfidenceHigh
	case "LOW", "VERY-LOW", "VERY_LOW":
		return schemas.ConfidenceLow
	default:
		return schemas.ConfidenceMedium
	}
}

// positive returns a pointer for strictly positive values. Tools use 0 for
// "not reported".
func positive(v int) *int {
	if v <= 0 {
		return nil
	}
	return schemas.IntPtr(v)
}

// stringList accepts either a single string or an array of strings, which is
// how semgrep rule metadata spells its cwe and owasp tags.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}
	if trimmed[0] == '"' {
		var one string
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		if one == "" {
			*s = nil
		} else {
			*s = stringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
