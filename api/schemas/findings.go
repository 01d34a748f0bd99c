package schemas

import (
	"encoding/json"
	"strings"
)

// -- Finding Schemas --

// Severity is the canonical four-level severity scale every tool's native
// vocabulary is mapped onto. Values are lowercase to match the database column.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists the canonical levels from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// Rank orders severities for sorting; lower is more severe. Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Category is the vulnerability class of a finding. Only the values declared
// below are valid canonical categories.
type Category string

const (
	CategoryXSS                     Category = "XSS"
	CategorySQLInjection            Category = "SQL Injection"
	CategoryCommandInjection        Category = "Command Injection"
	CategoryPathTraversal           Category = "Path Traversal"
	CategorySSRF                    Category = "SSRF"
	CategoryCSRF                    Category = "CSRF"
	CategoryHardcodedCredentials    Category = "Hardcoded Credentials"
	CategoryInsecureDeserialization Category = "Insecure Deserialization"
	CategoryCryptography            Category = "Cryptography"
	CategoryAuthFlaws               Category = "Auth Flaws"
	CategorySessionManagement       Category = "Session Management"
	CategoryOpenRedirect            Category = "Open Redirect"
	CategoryReDoS                   Category = "ReDoS"
	CategoryOther                   Category = "Other"
)

// Categories returns the fixed category vocabulary in presentation order.
func Categories() []Category {
	return []Category{
		CategoryXSS,
		CategorySQLInjection,
		CategoryCommandInjection,
		CategoryPathTraversal,
		CategorySSRF,
		CategoryCSRF,
		CategoryHardcodedCredentials,
		CategoryInsecureDeserialization,
		CategoryCryptography,
		CategoryAuthFlaws,
		CategorySessionManagement,
		CategoryOpenRedirect,
		CategoryReDoS,
		CategoryOther,
	}
}

// ParseCategory resolves a case-insensitive category name to its canonical
// spelling. The boolean is false when the name is not part of the vocabulary.
func ParseCategory(name string) (Category, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}
	for _, c := range Categories() {
		if strings.EqualFold(string(c), trimmed) {
			return c, true
		}
	}
	return "", false
}

// Location pins a finding to a file inside the scanned repository. Path is
// always repository-relative with forward slashes; line and column bounds are
// nil when the tool did not report them.
type Location struct {
	Path        string `json:"path"`
	StartLine   *int   `json:"start_line"`
	EndLine     *int   `json:"end_line"`
	StartColumn *int   `json:"start_column"`
	EndColumn   *int   `json:"end_column"`
}

// Well-known metadata keys populated by the adapters.
const (
	MetaConfidence = "confidence"
	MetaCWE        = "cwe"
	MetaOWASP      = "owasp"
	MetaSnippet    = "snippet"
	MetaHelpURI    = "help_uri"
)

// Confidence levels stored under MetaConfidence.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Finding is the canonical, tool-agnostic representation of one reported
// vulnerability. It is created by an adapter and treated as immutable after.
//
// Identity for comparison is (RuleID, Location.Path, Location.StartLine,
// Category). ID, Message, ToolName and Metadata never take part in it.
type Finding struct {
	ID       string         `json:"id,omitempty"`
	RuleID   string         `json:"rule_id"`
	Severity Severity       `json:"severity"`
	Category Category       `json:"category"`
	Location Location       `json:"location"`
	Message  string         `json:"message"`
	ToolName string         `json:"tool_name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Confidence returns the advisory confidence level, MEDIUM when absent.
func (f Finding) Confidence() string {
	if v, ok := f.Metadata[MetaConfidence].(string); ok && v != "" {
		return v
	}
	return ConfidenceMedium
}

// ToolOutput is the record handed to an adapter for one tool run. Payload is
// the tool's own JSON document and varies per tool.
type ToolOutput struct {
	Tool           string          `json:"tool"`
	Success        bool            `json:"success"`
	RepositoryPath string          `json:"repository_path"`
	Error          string          `json:"error,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// IntPtr is a small helper for populating optional location bounds.
func IntPtr(v int) *int {
	return &v
}
