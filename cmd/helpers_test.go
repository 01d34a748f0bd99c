// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/config"
	"github.com/xkilldash9x/scalpel-compare/internal/observability"
)

// Mock Definitions

// mockStore mocks the comparisonStore interface.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) StoreFindings(ctx context.Context, repositoryID string, findings []schemas.Finding) ([]string, error) {
	args := m.Called(ctx, repositoryID, findings)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockStore) FetchByRepository(ctx context.Context, repositoryID string) (map[string][]schemas.Finding, error) {
	args := m.Called(ctx, repositoryID)
	byTool, _ := args.Get(0).(map[string][]schemas.Finding)
	return byTool, args.Error(1)
}

func (m *mockStore) StoreToolRun(ctx context.Context, run schemas.ToolRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockStore) FetchToolRuns(ctx context.Context, repositoryID string) ([]schemas.ToolRun, error) {
	args := m.Called(ctx, repositoryID)
	runs, _ := args.Get(0).([]schemas.ToolRun)
	return runs, args.Error(1)
}

func (m *mockStore) StoreBatch(ctx context.Context, repositoryID string, findings []schemas.Finding, runs []schemas.ToolRun) ([]string, error) {
	args := m.Called(ctx, repositoryID, findings, runs)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// mockStoreProvider hands out a prepared store and records cleanup.
type mockStoreProvider struct {
	store   comparisonStore
	err     error
	calls   int
	cleaned int
}

func (p *mockStoreProvider) Create(ctx context.Context, cfg config.Interface) (comparisonStore, func(), error) {
	p.calls++
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.store, func() { p.cleaned++ }, nil
}

// Test Helpers and Fixtures

const semgrepFixture = `{"results": [
	{"check_id": "xss-1", "path": "/src/app/index.js", "start": {"line": 15, "col": 5}, "end": {"line": 15, "col": 9},
	 "extra": {"message": "innerHTML sink", "severity": "ERROR", "metadata": {"cwe": "CWE-79"}}}
]}`

const gosecFixture = `{"Issues": [
	{"severity": "HIGH", "confidence": "HIGH", "cwe": {"id": "89"}, "rule_id": "G201",
	 "details": "SQL string formatting", "file": "/src/app/db.go", "line": "42", "column": "7"}
]}`

// writeFile writes content into the test's temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// executeCommand runs a fresh command tree and captures its stdout.
func executeCommand(t *testing.T, provider storeProvider, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
	t.Setenv("SCALPEL_LOGGER_LEVEL", "fatal")

	if provider == nil {
		provider = &mockStoreProvider{}
	}
	root := newRootCmd(provider)
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// toolArgs returns --tool flags for the semgrep and gosec fixtures.
func toolArgs(t *testing.T) []string {
	t.Helper()
	return []string{
		"--tool", "semgrep=" + writeFile(t, "semgrep.json", semgrepFixture),
		"--tool", "gosec=" + writeFile(t, "gosec.json", gosecFixture),
	}
}

func newDefaultTestConfig() *config.Config {
	return config.NewDefaultConfig()
}
