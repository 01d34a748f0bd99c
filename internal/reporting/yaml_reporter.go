package reporting

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/observability"
)

// YAMLReporter writes one YAML document per report. Field names follow the
// JSON form of the report.
type YAMLReporter struct {
	encoder *yaml.Encoder
	writer  io.WriteCloser
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewYAMLReporter creates a reporter that writes YAML output.
func NewYAMLReporter(writer io.WriteCloser) *YAMLReporter {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	return &YAMLReporter{
		encoder: encoder,
		writer:  writer,
		logger:  observability.GetLogger().Named("yaml_reporter"),
	}
}

// Write encodes the report as a YAML document.
func (r *YAMLReporter) Write(report *schemas.ComparisonReport) error {
	// Round-trip through JSON so the json tags and custom marshalers apply.
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode report: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML report: %w", err)
	}
	r.logger.Debug("Wrote YAML report", zap.Int("tools", len(report.Tools)))
	return nil
}

// Close flushes the encoder and closes the underlying writer.
func (r *YAMLReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	encodeErr := r.encoder.Close()
	closeErr := r.writer.Close()
	if encodeErr != nil {
		return fmt.Errorf("failed to flush YAML output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}
