// File: internal/orchestrator/orchestrator.go
// Description: Runs the adapters for one comparison batch concurrently and
// acts as the join barrier before the comparison engine sees any results.

package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/adapters"
)

// DefaultConcurrency bounds the fan-out when no limit is configured.
const DefaultConcurrency = 4

// Runner fans tool outputs out to their adapters.
type Runner struct {
	registry    *adapters.Registry
	logger      *zap.Logger
	concurrency int
}

// New creates a Runner. A non-positive concurrency selects DefaultConcurrency.
func New(registry *adapters.Registry, logger *zap.Logger, concurrency int) (*Runner, error) {
	if registry == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize runner with nil dependencies")
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Runner{
		registry:    registry,
		logger:      logger.Named("runner"),
		concurrency: concurrency,
	}, nil
}

// Run adapts every output and returns one Outcome per input, in input order.
// It returns only after all adapters have finished. A failure in one adapter,
// including a panic, becomes a failed Outcome for that tool alone. Outputs
// not yet started when ctx is cancelled are reported as failed with the
// context error.
func (r *Runner) Run(ctx context.Context, outputs []schemas.ToolOutput, repo adapters.RepositoryContext) []adapters.Outcome {
	outcomes := make([]adapters.Outcome, len(outputs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, out := range outputs {
		if err := ctx.Err(); err != nil {
			outcomes[i] = adapters.Failed(out.Tool, err.Error())
			continue
		}
		// Each goroutine writes only its own slot.
		g.Go(func() error {
			outcomes[i] = r.runOne(ctx, out, repo)
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Info("Adapters finished", zap.Int("tools", len(outputs)))
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, out schemas.ToolOutput, repo adapters.RepositoryContext) (outcome adapters.Outcome) {
	logger := r.logger.With(zap.String("tool", out.Tool))

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Adapter panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			outcome = adapters.Failed(out.Tool, fmt.Sprintf("adapter panicked: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return adapters.Failed(out.Tool, err.Error())
	}

	adapter, err := r.registry.Lookup(out.Tool)
	if err != nil {
		logger.Warn("Skipping tool output", zap.Error(err))
		return adapters.Failed(out.Tool, err.Error())
	}

	outcome = adapters.AdaptOutput(adapter, out, repo)
	if outcome.Success {
		logger.Debug("Adapted tool output",
			zap.Int("findings", len(outcome.Findings)),
			zap.Int("skipped", outcome.Skipped))
	} else {
		logger.Warn("Tool output could not be used", zap.String("error", outcome.Error))
	}
	return outcome
}
