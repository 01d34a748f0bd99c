// File: cmd/ingest.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/internal/adapters"
	"github.com/xkilldash9x/scalpel-compare/internal/config"
	"github.com/xkilldash9x/scalpel-compare/internal/observability"
)

type ingestOptions struct {
	inputOptions
	migrate bool
}

// newIngestCmd creates and configures the `ingest` command.
func newIngestCmd(provider storeProvider) *cobra.Command {
	var opts ingestOptions

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Normalize tool outputs and store them for a repository",
		Long: `Adapts each tool's raw output and stores the canonical findings and the
outcome of every tool. Re-ingesting a tool replaces its previous findings.
Use 'report' to compare what is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runIngest(cmd, observability.GetLogger(), cfg, opts, provider)
		},
	}

	addInputFlags(ingestCmd, &opts.inputOptions)
	_ = ingestCmd.MarkFlagRequired("repository-id")
	ingestCmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Create the database tables before storing")
	return ingestCmd
}

// runIngest contains the core, testable logic of the ingest command.
func runIngest(cmd *cobra.Command, logger *zap.Logger, cfg config.Interface, opts ingestOptions, provider storeProvider) error {
	ctx := cmd.Context()

	outputs, err := loadOutputs(opts.inputOptions, cfg.Compare(), logger)
	if err != nil {
		return err
	}
	root, err := resolveRoot(opts.root, cfg.Compare())
	if err != nil {
		return err
	}

	st, cleanup, err := openStore(ctx, cfg, provider, opts.migrate)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	pipeline, err := newPipeline(cfg, st, 0, logger)
	if err != nil {
		return err
	}
	outcomes, err := pipeline.Ingest(ctx, outputs, adapters.RepositoryContext{Root: root, RepositoryID: opts.repositoryID})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tSTATUS\tFINDINGS\tSKIPPED")
	for _, o := range outcomes {
		status := "ok"
		if !o.Success {
			status = "failed: " + o.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", o.Tool, status, len(o.Findings), o.Skipped)
	}
	return w.Flush()
}
