// File: cmd/pipeline.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/adapters"
	"github.com/xkilldash9x/scalpel-compare/internal/config"
	"github.com/xkilldash9x/scalpel-compare/internal/orchestrator"
	"github.com/xkilldash9x/scalpel-compare/internal/reporting"
	"github.com/xkilldash9x/scalpel-compare/internal/results"
)

// newPipeline wires the classifier, adapter registry, runner and store.
// st may be nil.
func newPipeline(cfg config.Interface, st schemas.Store, concurrency int, logger *zap.Logger) (*results.Pipeline, error) {
	classifier, err := cfg.Compare().Classifier()
	if err != nil {
		return nil, fmt.Errorf("failed to build category classifier: %w", err)
	}
	if concurrency <= 0 {
		concurrency = cfg.Compare().Concurrency
	}
	runner, err := orchestrator.New(adapters.DefaultRegistry(classifier), logger, concurrency)
	if err != nil {
		return nil, err
	}
	return results.NewPipeline(runner, st, logger), nil
}

// resolveFormat returns the flag value, or the configured format when unset.
func resolveFormat(flagFormat string, cfg config.Interface) (string, error) {
	format := flagFormat
	if format == "" {
		format = cfg.Compare().ReportFormat
	}
	if !config.IsReportFormat(format) {
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
	return format, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// writeReport renders report to outputPath, or to the command's stdout when
// the path is empty.
func writeReport(cmd *cobra.Command, logger *zap.Logger, report *schemas.ComparisonReport, format, outputPath string) error {
	var (
		reporter schemas.Reporter
		err      error
	)
	if outputPath == "" || outputPath == "stdout" {
		reporter, err = reporting.NewWithWriter(format, nopWriteCloser{cmd.OutOrStdout()}, Version)
	} else {
		reporter, err = reporting.New(format, outputPath, Version)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}

	if err := reporter.Write(report); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}
	if outputPath != "" && outputPath != "stdout" {
		logger.Info("Report successfully written to file", zap.String("path", outputPath), zap.String("format", format))
	}
	return nil
}
