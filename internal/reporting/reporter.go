// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatSARIF    = "sarif"
	FormatMarkdown = "markdown"
)

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty path or "stdout" writes to standard output.
func New(format, outputPath, toolVersion string) (schemas.Reporter, error) {
	if !knownFormat(format) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		path, err := homedir.Expand(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand output path %s: %w", outputPath, err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewWithWriter(format, writer, toolVersion)
}

// NewWithWriter creates a reporter over an existing writer. The reporter takes
// ownership of the writer and closes it on Close.
func NewWithWriter(format string, writer io.WriteCloser, toolVersion string) (schemas.Reporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONReporter(writer), nil
	case FormatYAML:
		return NewYAMLReporter(writer), nil
	case FormatSARIF:
		return NewSARIFReporter(writer, toolVersion), nil
	case FormatMarkdown:
		return NewMarkdownReporter(writer), nil
	default:
		writer.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func knownFormat(format string) bool {
	switch format {
	case FormatJSON, FormatYAML, FormatSARIF, FormatMarkdown:
		return true
	}
	return false
}
