// File: internal/results/pipeline.go
package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/adapters"
	"github.com/xkilldash9x/scalpel-compare/internal/engine"
	"github.com/xkilldash9x/scalpel-compare/internal/orchestrator"
)

// ErrNoStore is returned by operations that need persistence when the
// pipeline was built without a store.
var ErrNoStore = errors.New("results pipeline has no store configured")

// Pipeline ties the adapter runner, the optional store and the comparison
// engine together. Both entry points end in the same engine stages, so a
// report built from stored findings matches one built in memory.
type Pipeline struct {
	runner *orchestrator.Runner
	store  schemas.Store
	engine *engine.Engine
	logger *zap.Logger
	now    func() time.Time
}

// NewPipeline creates a new results pipeline. store may be nil when nothing
// is persisted.
func NewPipeline(runner *orchestrator.Runner, store schemas.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		runner: runner,
		store:  store,
		engine: engine.New(logger),
		logger: logger.Named("results_pipeline"),
		now:    time.Now,
	}
}

// FromOutputs adapts raw tool outputs and compares them. When the pipeline
// has a store, successful findings and every tool run are persisted before
// the comparison; a persistence failure aborts the call.
func (p *Pipeline) FromOutputs(ctx context.Context, outputs []schemas.ToolOutput, repo adapters.RepositoryContext) (*schemas.ComparisonReport, error) {
	if p.runner == nil {
		return nil, fmt.Errorf("results pipeline has no runner configured")
	}
	p.logger.Info("Starting comparison", zap.String("repository_id", repo.RepositoryID), zap.Int("outputs", len(outputs)))

	// Run returns only after every adapter is done.
	outcomes := p.runner.Run(ctx, outputs, repo)

	if p.store != nil && repo.RepositoryID != "" {
		if err := p.persist(ctx, repo.RepositoryID, outcomes); err != nil {
			return nil, err
		}
	}

	report := p.engine.Compare(outcomes)
	p.stamp(&report, repo.RepositoryID)
	p.logger.Info("Comparison complete",
		zap.String("comparison_id", report.ComparisonID),
		zap.Int("total_unique_issues", report.Overlap.TotalUniqueIssues))
	return &report, nil
}

// Ingest adapts and persists outputs without comparing them.
func (p *Pipeline) Ingest(ctx context.Context, outputs []schemas.ToolOutput, repo adapters.RepositoryContext) ([]adapters.Outcome, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	if repo.RepositoryID == "" {
		return nil, fmt.Errorf("repository id is required for ingest")
	}
	outcomes := p.runner.Run(ctx, outputs, repo)
	if err := p.persist(ctx, repo.RepositoryID, outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// FromStore compares everything stored for a repository.
func (p *Pipeline) FromStore(ctx context.Context, repositoryID string) (*schemas.ComparisonReport, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	p.logger.Info("Starting results processing", zap.String("repository_id", repositoryID))

	findingsByTool, err := p.store.FetchByRepository(ctx, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch findings: %w", err)
	}
	runs, err := p.store.FetchToolRuns(ctx, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tool runs: %w", err)
	}
	p.logger.Info("Retrieved stored findings", zap.Int("tools", len(findingsByTool)), zap.Int("runs", len(runs)))

	report := p.engine.CompareFindings(findingsByTool, runs)
	p.stamp(&report, repositoryID)
	return &report, nil
}

// persist writes one run per tool, merged the way the engine merges them, and
// the findings of the successful tools in a single batch.
func (p *Pipeline) persist(ctx context.Context, repositoryID string, outcomes []adapters.Outcome) error {
	findingsByTool, statuses := engine.MergeOutcomes(outcomes)
	recordedAt := p.now().UTC()

	var (
		batch []schemas.Finding
		runs  []schemas.ToolRun
	)
	seen := make(map[string]struct{}, len(statuses))
	for _, o := range outcomes {
		if _, ok := seen[o.Tool]; ok {
			continue
		}
		seen[o.Tool] = struct{}{}

		status := statuses[o.Tool]
		batch = append(batch, findingsByTool[o.Tool]...)
		runs = append(runs, schemas.ToolRun{
			RepositoryID: repositoryID,
			Tool:         o.Tool,
			Success:      status.Success,
			Error:        status.Error,
			FindingCount: status.FindingCount,
			RecordedAt:   recordedAt,
		})
	}

	if _, err := p.store.StoreBatch(ctx, repositoryID, batch, runs); err != nil {
		return fmt.Errorf("failed to store findings: %w", err)
	}
	p.logger.Debug("Persisted outcomes", zap.Int("findings", len(batch)), zap.Int("runs", len(runs)))
	return nil
}

func (p *Pipeline) stamp(report *schemas.ComparisonReport, repositoryID string) {
	generatedAt := p.now().UTC()
	report.ComparisonID = uuid.NewString()
	report.RepositoryID = repositoryID
	report.GeneratedAt = &generatedAt
}
