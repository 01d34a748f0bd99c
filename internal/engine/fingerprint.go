package engine

import (
	"strconv"
	"strings"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

const (
	// FingerprintSeparator joins the identity components.
	FingerprintSeparator = "::"
	// NoLineSentinel stands in for an absent start line. It is distinct from
	// the empty string so a missing line never looks like a missing rule id.
	NoLineSentinel = "none"
)

// Fingerprint returns the structural identity key of a finding:
// rule_id::path::start_line::category. It is an exact key, not a hash, and is
// stable across processes and tools. Message, severity, tool and metadata do
// not take part.
//
// Lines are compared exactly. Two tools anchoring the same issue one line
// apart produce different fingerprints and are reported as unique.
func Fingerprint(f schemas.Finding) string {
	line := NoLineSentinel
	if f.Location.StartLine != nil {
		line = strconv.Itoa(*f.Location.StartLine)
	}
	return strings.Join([]string{
		f.RuleID,
		f.Location.Path,
		line,
		string(f.Category),
	}, FingerprintSeparator)
}
