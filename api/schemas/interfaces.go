package schemas

import (
	"context"
	"time"
)

// -- Store Interface --

// ToolRun is the persisted record of one adapter invocation. It keeps failed
// tools visible after a round trip through the database.
type ToolRun struct {
	RepositoryID string    `json:"repository_id"`
	Tool         string    `json:"tool"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	FindingCount int       `json:"finding_count"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Store is the persistence collaborator. The comparison engine never writes
// through it; it only consumes FetchByRepository as its findingsByTool input.
type Store interface {
	// StoreFindings persists canonical findings for a repository and returns
	// their ids in input order.
	StoreFindings(ctx context.Context, repositoryID string, findings []Finding) ([]string, error)
	// FetchByRepository returns every stored finding grouped by tool name.
	FetchByRepository(ctx context.Context, repositoryID string) (map[string][]Finding, error)
	// StoreToolRun records the outcome of one tool for a repository.
	StoreToolRun(ctx context.Context, run ToolRun) error
	// FetchToolRuns returns the latest run per tool for a repository.
	FetchToolRuns(ctx context.Context, repositoryID string) ([]ToolRun, error)
	// StoreBatch replaces the findings of every tool named in findings or runs
	// and records the runs, all or nothing. It returns the finding ids in
	// input order.
	StoreBatch(ctx context.Context, repositoryID string, findings []Finding, runs []ToolRun) ([]string, error)
}

// -- Reporting Interface --

// Reporter writes comparison reports to an output.
type Reporter interface {
	// Write renders a single report.
	Write(report *ComparisonReport) error
	// Close flushes pending output and releases the underlying writer.
	Close() error
}
