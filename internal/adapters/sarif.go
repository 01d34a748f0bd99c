package adapters

import (
	"strings"

	"github.com/xkilldash9x/scalpel-compare/internal/sarif"
	"github.com/xkilldash9x/scalpel-compare/internal/taxonomy"
)

// SARIFAdapter reads SARIF 2.1.0 logs. CodeQL and Snyk both emit SARIF and
// differ only in which rule properties carry the CWE and precision.
type SARIFAdapter struct {
	base
}

func NewCodeQLAdapter(classifier *taxonomy.Classifier) *SARIFAdapter {
	return &SARIFAdapter{base: newBase(taxonomy.ToolCodeQL, classifier)}
}

func NewSnykAdapter(classifier *taxonomy.Classifier) *SARIFAdapter {
	return &SARIFAdapter{base: newBase(taxonomy.ToolSnyk, classifier)}
}

func (a *SARIFAdapter) Adapt(payload []byte, repo RepositoryContext) Outcome {
	var sarifLog sarif.Log
	if err := a.decode(payload, &sarifLog); err != nil {
		return a.failure(err)
	}

	var natives []nativeFinding
	for _, run := range sarifLog.Runs {
		if run == nil {
			continue
		}
		for _, res := range run.Results {
			if res == nil {
				continue
			}
			natives = append(natives, a.native(run, res, repo))
		}
	}
	return a.collect(natives)
}

func (a *SARIFAdapter) native(run *sarif.Run, res *sarif.Result, repo RepositoryContext) nativeFinding {
	rule := run.RuleFor(res)

	n := nativeFinding{
		ruleID:   res.RuleIdentifier(),
		severity: sarifSeverityToken(res, rule),
		message:  res.Message.String(),
	}
	if rule != nil {
		if n.ruleID == "" {
			n.ruleID = rule.ID
		}
		if n.message == "" && rule.ShortDescription != nil && rule.ShortDescription.Text != nil {
			n.message = *rule.ShortDescription.Text
		}
		if rule.HelpURI != nil {
			n.helpURI = *rule.HelpURI
		}
		props := rule.Properties
		// CodeQL encodes CWEs as tags ("external/cwe/cwe-079"); Snyk uses a cwe property.
		n.cwes = append(cweTags(props.Strings("tags")), props.Strings("cwe")...)
		n.confidence = props.String("precision")
	}
	if n.cwes == nil {
		n.cwes = cweTags(res.Properties.Strings("tags"))
	}

	if loc := firstPhysicalLocation(res); loc != nil {
		if loc.ArtifactLocation != nil && loc.ArtifactLocation.URI != nil {
			n.location.Path = uriToPath(repo.Root, *loc.ArtifactLocation.URI)
		}
		if reg := loc.Region; reg != nil {
			n.location.StartLine = positivePtr(reg.StartLine)
			n.location.EndLine = positivePtr(reg.EndLine)
			n.location.StartColumn = positivePtr(reg.StartColumn)
			n.location.EndColumn = positivePtr(reg.EndColumn)
			if reg.Snippet != nil && reg.Snippet.Text != nil {
				n.snippet = *reg.Snippet.Text
			}
		}
	}
	return n
}

// sarifSeverityToken prefers the numeric security-severity band, then the
// result level, then the rule's default level. SARIF's implied default is warning.
func sarifSeverityToken(res *sarif.Result, rule *sarif.ReportingDescriptor) string {
	if rule != nil {
		if score, ok := rule.Properties.Float("security-severity"); ok {
			if band := taxonomy.SecuritySeverityBand(score); band != "" {
				return band
			}
		}
	}
	if res.Level != "" {
		return string(res.Level)
	}
	if rule != nil && rule.DefaultConfiguration != nil && rule.DefaultConfiguration.Level != "" {
		return string(rule.DefaultConfiguration.Level)
	}
	return string(sarif.LevelWarning)
}

func firstPhysicalLocation(res *sarif.Result) *sarif.PhysicalLocation {
	for _, loc := range res.Locations {
		if loc != nil && loc.PhysicalLocation != nil {
			return loc.PhysicalLocation
		}
	}
	return nil
}

func cweTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), "cwe") {
			out = append(out, tag)
		}
	}
	return out
}

func positivePtr(v *int) *int {
	if v == nil {
		return nil
	}
	return positive(*v)
}
