// File: cmd/report.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/internal/config"
	"github.com/xkilldash9x/scalpel-compare/internal/observability"
)

// newReportCmd creates and configures the `report` command.
func newReportCmd(provider storeProvider) *cobra.Command {
	var repositoryID, outputPath, format string

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Compare the stored findings of a repository",
		Long: `Fetches every stored finding and tool run for a repository and builds the
same comparison report 'compare' produces in memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			// Delegate to the testable core logic function.
			return runReport(cmd, observability.GetLogger(), cfg, repositoryID, outputPath, format, provider)
		},
	}

	reportCmd.Flags().StringVarP(&repositoryID, "repository-id", "r", "", "The repository to report on (required)")
	_ = reportCmd.MarkFlagRequired("repository-id")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	reportCmd.Flags().StringVarP(&format, "format", "f", "", "Report format: json, yaml, sarif or markdown (default from compare.report_format)")

	return reportCmd
}

// runReport contains the core, testable logic for generating a report.
func runReport(cmd *cobra.Command, logger *zap.Logger, cfg config.Interface, repositoryID, outputPath, format string, provider storeProvider) error {
	ctx := cmd.Context()
	logger.Info("Starting report generation", zap.String("repository_id", repositoryID))

	format, err := resolveFormat(format, cfg)
	if err != nil {
		return err
	}

	st, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	// Ensure cleanup is not nil before deferring (safe for mocks that might not provide a cleanup).
	if cleanup != nil {
		defer cleanup()
	}

	pipeline, err := newPipeline(cfg, st, 0, logger)
	if err != nil {
		return err
	}
	report, err := pipeline.FromStore(ctx, repositoryID)
	if err != nil {
		logger.Error("Failed to process results", zap.Error(err), zap.String("repository_id", repositoryID))
		return fmt.Errorf("failed to build report: %w", err)
	}
	return writeReport(cmd, logger, report, format, outputPath)
}
