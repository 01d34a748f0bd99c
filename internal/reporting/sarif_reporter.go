// internal/reporting/sarif_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/observability"
	"github.com/xkilldash9x/scalpel-compare/internal/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName    = "scalpel-compare"
	ToolInfoURI = "https://github.com/xkilldash9x/scalpel-compare"

	// FingerprintKey names the partial fingerprint carrying the comparison identity.
	FingerprintKey = "scalpelCompareIdentity/v1"
)

// SARIFReporter implements schemas.Reporter for SARIF 2.1.0. Each report
// becomes one run whose results are the overlap groups; the log is written
// on Close. It is thread safe.
type SARIFReporter struct {
	writer      io.WriteCloser
	logger      *zap.Logger
	toolVersion string
	// mu protects log.
	mu  sync.Mutex
	log *sarif.Log
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	return &SARIFReporter{
		writer:      writer,
		logger:      observability.GetLogger().Named("sarif_reporter"),
		toolVersion: toolVersion,
		log: &sarif.Log{
			Version: sarif.Version,
			Schema:  sarif.SchemaURI,
			// Initialize empty slices (not nil) for proper JSON marshalling
			Runs: []*sarif.Run{},
		},
	}
}

// Write converts a report into a SARIF run and buffers it.
func (r *SARIFReporter) Write(report *schemas.ComparisonReport) error {
	startTime := time.Now()
	run := r.buildRun(report)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Runs = append(r.log.Runs, run)

	r.logger.Debug("Wrote comparison to SARIF buffer",
		zap.Int("results_count", len(run.Results)),
		zap.Int("rules_count", len(run.Tool.Driver.Rules)),
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Info("Finalizing SARIF report", zap.Int("total_runs", len(r.log.Runs)))

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

func (r *SARIFReporter) buildRun(report *schemas.ComparisonReport) *sarif.Run {
	driver := &sarif.ToolComponent{
		Name:           ToolName,
		InformationURI: sarif.StringPtr(ToolInfoURI),
		Rules:          []*sarif.ReportingDescriptor{},
	}
	if r.toolVersion != "" {
		driver.Version = sarif.StringPtr(r.toolVersion)
	}
	run := &sarif.Run{
		Tool:       &sarif.Tool{Driver: driver},
		Results:    []*sarif.Result{},
		Properties: runProperties(report),
	}

	ruleIndex := make(map[string]int)
	groups := make([]schemas.OverlapGroup, 0, len(report.DetailedOverlap)+len(report.DetailedUnique))
	groups = append(groups, report.DetailedOverlap...)
	groups = append(groups, report.DetailedUnique...)

	for _, g := range groups {
		f := g.RepresentativeFinding
		idx, ok := ruleIndex[f.RuleID]
		if !ok {
			idx = len(driver.Rules)
			ruleIndex[f.RuleID] = idx
			driver.Rules = append(driver.Rules, newRule(f))
		}

		message := f.Message
		if message == "" {
			message = f.RuleID
		}
		run.Results = append(run.Results, &sarif.Result{
			RuleID:    f.RuleID,
			RuleIndex: intPtr(idx),
			Message:   &sarif.Message{Text: sarif.StringPtr(message)},
			Level:     levelFor(f.Severity),
			Locations: []*sarif.Location{locationFor(f.Location)},
			PartialFingerprints: map[string]string{
				FingerprintKey: g.Fingerprint,
			},
			Properties: sarif.PropertyBag{
				"detected_by": g.Tools(),
				"shared":      g.Shared(),
				"severity":    string(f.Severity),
				"category":    string(f.Category),
				"tool_name":   f.ToolName,
			},
		})
	}
	return run
}

func newRule(f schemas.Finding) *sarif.ReportingDescriptor {
	props := sarif.PropertyBag{
		"tags":     []string{"security", string(f.Category)},
		"category": string(f.Category),
	}
	if cwes, ok := f.Metadata[schemas.MetaCWE]; ok {
		props["cwe"] = cwes
	}
	rule := &sarif.ReportingDescriptor{
		ID:                   f.RuleID,
		ShortDescription:     &sarif.MultiformatMessageString{Text: sarif.StringPtr(f.RuleID)},
		DefaultConfiguration: &sarif.ReportingConfiguration{Level: levelFor(f.Severity)},
		Properties:           props,
	}
	if help, ok := f.Metadata[schemas.MetaHelpURI].(string); ok && help != "" {
		rule.HelpURI = sarif.StringPtr(help)
	}
	return rule
}

func locationFor(loc schemas.Location) *sarif.Location {
	physical := &sarif.PhysicalLocation{
		ArtifactLocation: &sarif.ArtifactLocation{
			URI:       sarif.StringPtr(loc.Path),
			URIBaseID: sarif.StringPtr("%SRCROOT%"),
		},
	}
	if loc.StartLine != nil {
		physical.Region = &sarif.Region{
			StartLine:   loc.StartLine,
			EndLine:     loc.EndLine,
			StartColumn: loc.StartColumn,
			EndColumn:   loc.EndColumn,
		}
	}
	return &sarif.Location{PhysicalLocation: physical}
}

func runProperties(report *schemas.ComparisonReport) sarif.PropertyBag {
	props := sarif.PropertyBag{
		"tools":         report.Tools,
		"overlap":       report.Overlap,
		"effectiveness": report.Effectiveness,
		"tool_status":   report.ToolStatus,
	}
	if report.RepositoryID != "" {
		props["repository_id"] = report.RepositoryID
	}
	if report.ComparisonID != "" {
		props["comparison_id"] = report.ComparisonID
	}
	return props
}

// levelFor converts a canonical severity to the SARIF standard.
func levelFor(severity schemas.Severity) sarif.Level {
	switch severity {
	case schemas.SeverityCritical, schemas.SeverityHigh:
		return sarif.LevelError
	case schemas.SeverityMedium:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}

func intPtr(v int) *int {
	return &v
}
