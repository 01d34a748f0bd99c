// File: cmd/compare.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/adapters"
	"github.com/xkilldash9x/scalpel-compare/internal/config"
	"github.com/xkilldash9x/scalpel-compare/internal/observability"
)

type compareOptions struct {
	inputOptions
	format      string
	outputPath  string
	concurrency int
	persist     bool
	migrate     bool
}

// newCompareCmd creates and configures the `compare` command.
func newCompareCmd(provider storeProvider) *cobra.Command {
	var opts compareOptions

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the findings of several SAST tools",
		Long: `Adapts each tool's raw output into canonical findings, groups identical
findings across tools and prints overlap and effectiveness metrics.

Tool outputs come from a manifest (a JSON array of {tool, success,
repository_path, error, payload} records) and/or --tool name=path pairs.`,
		Example: `  scalpel-compare compare --root . --tool semgrep=semgrep.json --tool codeql=codeql.sarif
  scalpel-compare compare --manifest outputs.json --format markdown -o report.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runCompare(cmd, observability.GetLogger(), cfg, opts, provider)
		},
	}

	addInputFlags(compareCmd, &opts.inputOptions)
	compareCmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format: json, yaml, sarif or markdown (default from compare.report_format)")
	compareCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	compareCmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Adapters to run at once (default from compare.concurrency)")
	compareCmd.Flags().BoolVar(&opts.persist, "persist", false, "Store findings and tool runs in the configured database (requires --repository-id)")
	compareCmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Create the database tables before persisting")

	return compareCmd
}

func addInputFlags(cmd *cobra.Command, opts *inputOptions) {
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "JSON file with an array of tool output records")
	cmd.Flags().StringArrayVarP(&opts.toolSpecs, "tool", "t", nil, "Tool output as name=path; repeatable")
	cmd.Flags().StringVar(&opts.root, "root", "", "Repository root used to rebase absolute paths (default from compare.repository_root)")
	cmd.Flags().StringVarP(&opts.repositoryID, "repository-id", "r", "", "Identifier of the scanned repository")
}

// runCompare contains the core, testable logic of the compare command.
func runCompare(cmd *cobra.Command, logger *zap.Logger, cfg config.Interface, opts compareOptions, provider storeProvider) error {
	ctx := cmd.Context()

	format, err := resolveFormat(opts.format, cfg)
	if err != nil {
		return err
	}
	if opts.persist && opts.repositoryID == "" {
		return fmt.Errorf("--persist requires --repository-id")
	}
	outputs, err := loadOutputs(opts.inputOptions, cfg.Compare(), logger)
	if err != nil {
		return err
	}
	root, err := resolveRoot(opts.root, cfg.Compare())
	if err != nil {
		return err
	}

	var st schemas.Store
	if opts.persist {
		created, cleanup, err := openStore(ctx, cfg, provider, opts.migrate)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}
		st = created
	}

	pipeline, err := newPipeline(cfg, st, opts.concurrency, logger)
	if err != nil {
		return err
	}
	report, err := pipeline.FromOutputs(ctx, outputs, adapters.RepositoryContext{Root: root, RepositoryID: opts.repositoryID})
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeReport(cmd, logger, report, format, opts.outputPath)
}

// openStore creates the store and optionally applies the schema.
func openStore(ctx context.Context, cfg config.Interface, provider storeProvider, migrate bool) (comparisonStore, func(), error) {
	st, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if migrate {
		if err := st.Migrate(ctx); err != nil {
			if cleanup != nil {
				cleanup()
			}
			return nil, nil, err
		}
	}
	return st, cleanup, nil
}
