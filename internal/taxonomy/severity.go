// File: internal/taxonomy/severity.go
package taxonomy

import (
	"strings"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// ToolKind selects which native severity vocabulary applies to a tool.
type ToolKind int

const (
	// ToolGeneric covers tools without a dedicated table.
	ToolGeneric ToolKind = iota
	ToolSemgrep
	ToolCodeQL
	ToolSnyk
	ToolBearer
	ToolGosec
)

var toolKindNames = map[ToolKind]string{
	ToolGeneric: "generic",
	ToolSemgrep: "semgrep",
	ToolCodeQL:  "codeql",
	ToolSnyk:    "snyk",
	ToolBearer:  "bearer",
	ToolGosec:   "gosec",
}

func (k ToolKind) String() string {
	if name, ok := toolKindNames[k]; ok {
		return name
	}
	return toolKindNames[ToolGeneric]
}

// ParseToolKind maps a tool name to its kind. Unknown names are ToolGeneric.
func ParseToolKind(name string) ToolKind {
	n := strings.ToLower(strings.TrimSpace(name))
	for kind, kindName := range toolKindNames {
		if kindName == n {
			return kind
		}
	}
	return ToolGeneric
}

// KnownToolKinds lists every kind with a dedicated table.
func KnownToolKinds() []ToolKind {
	return []ToolKind{ToolSemgrep, ToolCodeQL, ToolSnyk, ToolBearer, ToolGosec}
}

// severityTable maps a lowercased native token to a canonical severity.
type severityTable map[string]schemas.Severity

var (
	semgrepSeverities = severityTable{
		"error":    schemas.SeverityHigh,
		"warning":  schemas.SeverityMedium,
		"info":     schemas.SeverityLow,
		"critical": schemas.SeverityCritical,
		"high":     schemas.SeverityHigh,
		"medium":   schemas.SeverityMedium,
		"low":      schemas.SeverityLow,
	}

	// SARIF levels plus the bands produced by SecuritySeverityBand.
	sarifSeverities = severityTable{
		"error":          schemas.SeverityHigh,
		"warning":        schemas.SeverityMedium,
		"note":           schemas.SeverityLow,
		"none":           schemas.SeverityLow,
		"recommendation": schemas.SeverityLow,
		"critical":       schemas.SeverityCritical,
		"high":           schemas.SeverityHigh,
		"medium":         schemas.SeverityMedium,
		"low":            schemas.SeverityLow,
	}

	bearerSeverities = severityTable{
		"critical": schemas.SeverityCritical,
		"high":     schemas.SeverityHigh,
		"medium":   schemas.SeverityMedium,
		"low":      schemas.SeverityLow,
		"warning":  schemas.SeverityLow,
	}

	gosecSeverities = severityTable{
		"high":   schemas.SeverityHigh,
		"medium": schemas.SeverityMedium,
		"low":    schemas.SeverityLow,
	}

	genericSeverities = severityTable{
		"critical": schemas.SeverityCritical,
		"high":     schemas.SeverityHigh,
		"medium":   schemas.SeverityMedium,
		"low":      schemas.SeverityLow,
		"error":    schemas.SeverityHigh,
		"warning":  schemas.SeverityMedium,
		"note":     schemas.SeverityLow,
		"info":     schemas.SeverityLow,
	}
)

func (k ToolKind) table() severityTable {
	switch k {
	case ToolSemgrep:
		return semgrepSeverities
	case ToolCodeQL, ToolSnyk:
		return sarifSeverities
	case ToolBearer:
		return bearerSeverities
	case ToolGosec:
		return gosecSeverities
	default:
		return genericSeverities
	}
}

// Severity resolves a native token using this kind's table. Unrecognized and
// empty tokens fall back to medium; the fallback is never critical.
func (k ToolKind) Severity(token string) schemas.Severity {
	if sev, ok := k.table()[strings.ToLower(strings.TrimSpace(token))]; ok {
		return sev
	}
	return schemas.SeverityMedium
}

// Tokens returns the native tokens recognized for this kind.
func (k ToolKind) Tokens() map[string]schemas.Severity {
	out := make(map[string]schemas.Severity, len(k.table()))
	for token, sev := range k.table() {
		out[token] = sev
	}
	return out
}

// NormalizeSeverity maps a tool's native severity token to the canonical scale.
func NormalizeSeverity(toolName, token string) schemas.Severity {
	return ParseToolKind(toolName).Severity(token)
}

// SecuritySeverityBand turns a SARIF "security-severity" score (CVSS-like,
// 0.0-10.0) into a native token. Non-positive scores return "" so callers fall
// back to the result level.
func SecuritySeverityBand(score float64) string {
	switch {
	case score >= 9.0:
		return "critical"
	case score >= 7.0:
		return "high"
	case score >= 4.0:
		return "medium"
	case score > 0:
		return "low"
	default:
		return ""
	}
}
