package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/engine"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store provides a PostgreSQL implementation of schemas.Store.
type Store struct {
	pool DBPool
	log  *zap.Logger
	now  func() time.Time
}

var _ schemas.Store = (*Store)(nil)

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
		now:  time.Now,
	}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS findings (
    id            UUID PRIMARY KEY,
    repository_id TEXT NOT NULL,
    tool_name     TEXT NOT NULL,
    rule_id       TEXT NOT NULL,
    severity      TEXT NOT NULL,
    category      TEXT NOT NULL,
    path          TEXT NOT NULL,
    start_line    INTEGER,
    end_line      INTEGER,
    start_column  INTEGER,
    end_column    INTEGER,
    message       TEXT NOT NULL DEFAULT '',
    metadata      JSONB NOT NULL DEFAULT '{}'::jsonb,
    fingerprint   TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS findings_repository_tool_idx ON findings (repository_id, tool_name);
CREATE INDEX IF NOT EXISTS findings_fingerprint_idx ON findings (repository_id, fingerprint);
CREATE TABLE IF NOT EXISTS tool_runs (
    repository_id TEXT NOT NULL,
    tool_name     TEXT NOT NULL,
    success       BOOLEAN NOT NULL,
    error         TEXT NOT NULL DEFAULT '',
    finding_count INTEGER NOT NULL DEFAULT 0,
    recorded_at   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (repository_id, tool_name)
);
`

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

var findingColumns = []string{
	"id", "repository_id", "tool_name", "rule_id", "severity", "category", "path",
	"start_line", "end_line", "start_column", "end_column",
	"message", "metadata", "fingerprint", "created_at",
}

const sqlDeleteToolFindings = `
        DELETE FROM findings
        WHERE repository_id = $1 AND tool_name = ANY($2);
    `

// StoreFindings replaces the stored findings of every tool present in the
// batch and returns the new ids in input order. Re-ingesting a tool's output
// therefore does not accumulate duplicates.
func (s *Store) StoreFindings(ctx context.Context, repositoryID string, findings []schemas.Finding) ([]string, error) {
	return s.StoreBatch(ctx, repositoryID, findings, nil)
}

// StoreBatch clears the findings of every tool named in findings or runs,
// copies the new findings and upserts the runs in one transaction.
func (s *Store) StoreBatch(ctx context.Context, repositoryID string, findings []schemas.Finding, runs []schemas.ToolRun) ([]string, error) {
	tools := toolNames(findings, runs)
	if len(tools) == 0 {
		return []string{}, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlDeleteToolFindings, repositoryID, tools); err != nil {
		return nil, fmt.Errorf("failed to clear previous findings: %w", err)
	}

	ids := []string{}
	if len(findings) > 0 {
		var rows [][]interface{}
		ids, rows, err = s.findingRows(repositoryID, findings)
		if err != nil {
			return nil, err
		}

		copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"findings"}, findingColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return nil, fmt.Errorf("failed to copy findings: %w", err)
		}
		if int(copyCount) != len(findings) {
			return nil, fmt.Errorf("mismatch in copied findings count: expected %d, got %d", len(findings), copyCount)
		}
	}

	for _, run := range runs {
		if _, err := tx.Exec(ctx, sqlUpsertToolRun, s.runArgs(repositoryID, run)...); err != nil {
			return nil, fmt.Errorf("failed to record tool run for %s: %w", run.Tool, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Stored batch", zap.String("repository_id", repositoryID),
		zap.Int("findings", len(findings)), zap.Int("runs", len(runs)))
	return ids, nil
}

func (s *Store) findingRows(repositoryID string, findings []schemas.Finding) ([]string, [][]interface{}, error) {
	createdAt := s.now().UTC()
	ids := make([]string, len(findings))
	rows := make([][]interface{}, len(findings))
	for i, f := range findings {
		metadata := json.RawMessage("{}")
		if len(f.Metadata) > 0 {
			encoded, err := json.Marshal(f.Metadata)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to encode metadata for %s finding %q: %w", f.ToolName, f.RuleID, err)
			}
			metadata = encoded
		}

		ids[i] = uuid.NewString()
		rows[i] = []interface{}{
			ids[i], repositoryID, f.ToolName, f.RuleID,
			string(f.Severity), string(f.Category), f.Location.Path,
			f.Location.StartLine, f.Location.EndLine, f.Location.StartColumn, f.Location.EndColumn,
			f.Message, metadata, engine.Fingerprint(f), createdAt,
		}
	}
	return ids, rows, nil
}

// toolNames lists the tools of a batch in first-seen order, findings first.
func toolNames(findings []schemas.Finding, runs []schemas.ToolRun) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, f := range findings {
		add(f.ToolName)
	}
	for _, r := range runs {
		add(r.Tool)
	}
	return names
}

const sqlFetchFindings = `
        SELECT id, tool_name, rule_id, severity, category, path,
               start_line, end_line, start_column, end_column, message, metadata
        FROM findings
        WHERE repository_id = $1
        ORDER BY tool_name ASC, created_at ASC, id ASC;
    `

// FetchByRepository returns the stored findings of a repository grouped by tool.
func (s *Store) FetchByRepository(ctx context.Context, repositoryID string) (map[string][]schemas.Finding, error) {
	rows, err := s.pool.Query(ctx, sqlFetchFindings, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	byTool := make(map[string][]schemas.Finding)
	for rows.Next() {
		var (
			f                                          schemas.Finding
			severity, category                         string
			startLine, endLine, startColumn, endColumn *int
			metadata                                   []byte
		)
		err := rows.Scan(
			&f.ID, &f.ToolName, &f.RuleID, &severity, &category, &f.Location.Path,
			&startLine, &endLine, &startColumn, &endColumn,
			&f.Message, &metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding row: %w", err)
		}

		f.Severity = schemas.Severity(severity)
		f.Category = schemas.Category(category)
		f.Location.StartLine = startLine
		f.Location.EndLine = endLine
		f.Location.StartColumn = startColumn
		f.Location.EndColumn = endColumn
		if len(metadata) > 0 && string(metadata) != "{}" {
			if err := json.Unmarshal(metadata, &f.Metadata); err != nil {
				// Metadata is advisory; a bad document should not hide the finding.
				s.log.Warn("Discarding unreadable finding metadata", zap.String("finding_id", f.ID), zap.Error(err))
				f.Metadata = nil
			}
		}
		byTool[f.ToolName] = append(byTool[f.ToolName], f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return byTool, nil
}

const sqlUpsertToolRun = `
        INSERT INTO tool_runs (repository_id, tool_name, success, error, finding_count, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (repository_id, tool_name) DO UPDATE SET
            success = EXCLUDED.success,
            error = EXCLUDED.error,
            finding_count = EXCLUDED.finding_count,
            recorded_at = EXCLUDED.recorded_at;
    `

// StoreToolRun records the latest outcome of a tool for a repository.
func (s *Store) StoreToolRun(ctx context.Context, run schemas.ToolRun) error {
	if _, err := s.pool.Exec(ctx, sqlUpsertToolRun, s.runArgs(run.RepositoryID, run)...); err != nil {
		return fmt.Errorf("failed to record tool run for %s: %w", run.Tool, err)
	}
	return nil
}

func (s *Store) runArgs(repositoryID string, run schemas.ToolRun) []interface{} {
	recordedAt := run.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}
	return []interface{}{repositoryID, run.Tool, run.Success, run.Error, run.FindingCount, recordedAt.UTC()}
}

const sqlFetchToolRuns = `
        SELECT tool_name, success, error, finding_count, recorded_at
        FROM tool_runs
        WHERE repository_id = $1
        ORDER BY tool_name ASC;
    `

// FetchToolRuns returns the latest run per tool for a repository.
func (s *Store) FetchToolRuns(ctx context.Context, repositoryID string) ([]schemas.ToolRun, error) {
	rows, err := s.pool.Query(ctx, sqlFetchToolRuns, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool runs: %w", err)
	}
	defer rows.Close()

	var runs []schemas.ToolRun
	for rows.Next() {
		run := schemas.ToolRun{RepositoryID: repositoryID}
		if err := rows.Scan(&run.Tool, &run.Success, &run.Error, &run.FindingCount, &run.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tool run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return runs, nil
}
