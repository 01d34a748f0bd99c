package sarif

import (
	"strconv"
	"strings"
)

// This file defines the Go structs for the SARIF 2.1.0 standard.
// Pointers are used for optional fields. Required fields use value types.
// The same model decodes tool output (codeql, snyk) and encodes our own report.

const (
	Version   = "2.1.0"
	SchemaURI = "https://json.schemastore.org/sarif-2.1.0.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []*Run `json:"runs"`
}

type Run struct {
	Tool       *Tool       `json:"tool"`
	Results    []*Result   `json:"results"`
	Properties PropertyBag `json:"properties,omitempty"`
}

// Tool holds the driver and any plugins. CodeQL query packs appear as
// extensions and carry their own rules.
type Tool struct {
	Driver     *ToolComponent   `json:"driver"`
	Extensions []*ToolComponent `json:"extensions,omitempty"`
}

// ToolComponent describes the tool that produced the results. Pointers are used for optional bits.
type ToolComponent struct {
	Name           string                 `json:"name"`
	Version        *string                `json:"version,omitempty"`
	InformationURI *string                `json:"informationUri,omitempty"`
	Rules          []*ReportingDescriptor `json:"rules,omitempty"`
}

type ReportingDescriptor struct {
	ID                   string                    `json:"id"` // Required
	Name                 *string                   `json:"name,omitempty"`
	ShortDescription     *MultiformatMessageString `json:"shortDescription,omitempty"`
	FullDescription      *MultiformatMessageString `json:"fullDescription,omitempty"`
	Help                 *MultiformatMessageString `json:"help,omitempty"`
	HelpURI              *string                   `json:"helpUri,omitempty"`
	DefaultConfiguration *ReportingConfiguration   `json:"defaultConfiguration,omitempty"`
	Properties           PropertyBag               `json:"properties,omitempty"`
}

type ReportingConfiguration struct {
	Level Level `json:"level,omitempty"`
}

type Result struct {
	RuleID              string            `json:"ruleId"` // Required
	RuleIndex           *int              `json:"ruleIndex,omitempty"`
	Rule                *RuleReference    `json:"rule,omitempty"`
	Message             *Message          `json:"message"`
	Level               Level             `json:"level,omitempty"`
	Locations           []*Location       `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          PropertyBag       `json:"properties,omitempty"`
}

// RuleReference points at a rule in the driver or in an extension.
type RuleReference struct {
	ID            *string                 `json:"id,omitempty"`
	Index         *int                    `json:"index,omitempty"`
	ToolComponent *ToolComponentReference `json:"toolComponent,omitempty"`
}

// ToolComponentReference names a component by index into tool.extensions or by name.
type ToolComponentReference struct {
	Name  *string `json:"name,omitempty"`
	Index *int    `json:"index,omitempty"`
}

type Location struct {
	PhysicalLocation *PhysicalLocation `json:"physicalLocation,omitempty"`
	Message          *Message          `json:"message,omitempty"`
}

type PhysicalLocation struct {
	ArtifactLocation *ArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *Region           `json:"region,omitempty"`
}

type ArtifactLocation struct {
	URI       *string `json:"uri,omitempty"`
	URIBaseID *string `json:"uriBaseId,omitempty"`
}

type Region struct {
	StartLine   *int          `json:"startLine,omitempty"`
	EndLine     *int          `json:"endLine,omitempty"`
	StartColumn *int          `json:"startColumn,omitempty"`
	EndColumn   *int          `json:"endColumn,omitempty"`
	Snippet     *ArtifactText `json:"snippet,omitempty"`
}

type ArtifactText struct {
	Text *string `json:"text,omitempty"`
}

type Message struct {
	Text *string `json:"text,omitempty"`
}

type MultiformatMessageString struct {
	Text     *string `json:"text"`
	Markdown *string `json:"markdown,omitempty"`
}

type PropertyBag map[string]interface{}

// String returns the property as a string, formatting numbers when needed.
func (p PropertyBag) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Strings returns a string or array-of-strings property as a slice.
func (p PropertyBag) Strings(key string) []string {
	switch v := p[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Float parses numeric properties that tools emit either as numbers or as
// strings (codeql writes "security-severity": "8.8").
func (p PropertyBag) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
	LevelNone    Level = "none"
)

// RuleFor resolves the descriptor a result refers to. A rule.toolComponent
// reference selects the extension whose rules are searched; otherwise the
// driver is searched first and extensions are only matched by id. Within a
// component the id wins over the index, and an index whose rule carries a
// different id is ignored. Returns nil when no component describes the rule.
func (r *Run) RuleFor(res *Result) *ReportingDescriptor {
	if r == nil || r.Tool == nil || res == nil {
		return nil
	}
	id := res.RuleIdentifier()
	index := res.RuleIndex
	if index == nil && res.Rule != nil {
		index = res.Rule.Index
	}

	if res.Rule != nil && res.Rule.ToolComponent != nil {
		component := r.Tool.component(res.Rule.ToolComponent)
		if component == nil {
			return nil
		}
		return component.lookup(id, index)
	}

	if rule := r.Tool.Driver.lookup(id, index); rule != nil {
		return rule
	}
	if id == "" {
		return nil
	}
	for _, ext := range r.Tool.Extensions {
		if rule := ext.lookup(id, nil); rule != nil {
			return rule
		}
	}
	return nil
}

// RuleIdentifier returns ruleId, falling back to rule.id.
func (res *Result) RuleIdentifier() string {
	if res.RuleID != "" {
		return res.RuleID
	}
	if res.Rule != nil && res.Rule.ID != nil {
		return *res.Rule.ID
	}
	return ""
}

func (t *Tool) component(ref *ToolComponentReference) *ToolComponent {
	if ref.Index != nil {
		if *ref.Index >= 0 && *ref.Index < len(t.Extensions) {
			return t.Extensions[*ref.Index]
		}
		return nil
	}
	if ref.Name == nil {
		return t.Driver
	}
	if t.Driver != nil && t.Driver.Name == *ref.Name {
		return t.Driver
	}
	for _, ext := range t.Extensions {
		if ext != nil && ext.Name == *ref.Name {
			return ext
		}
	}
	return nil
}

func (c *ToolComponent) lookup(id string, index *int) *ReportingDescriptor {
	if c == nil {
		return nil
	}
	if id != "" {
		for _, rule := range c.Rules {
			if rule != nil && rule.ID == id {
				return rule
			}
		}
	}
	if index != nil && *index >= 0 && *index < len(c.Rules) {
		rule := c.Rules[*index]
		if rule != nil && (id == "" || rule.ID == id) {
			return rule
		}
	}
	return nil
}

// String dereferences an optional message, returning "" when absent.
func (m *Message) String() string {
	if m == nil || m.Text == nil {
		return ""
	}
	return *m.Text
}

// StringPtr is a helper for the many optional string fields.
func StringPtr(s string) *string {
	return &s
}
