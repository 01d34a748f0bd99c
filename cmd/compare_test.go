// File: cmd/compare_test.go
package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

func decodeReport(t *testing.T, out string) schemas.ComparisonReport {
	t.Helper()
	var report schemas.ComparisonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), "output: %s", out)
	return report
}

func TestCompareCmd_ToolFlags(t *testing.T) {
	args := append([]string{"compare", "--root", "/src/app"}, toolArgs(t)...)
	out, err := executeCommand(t, nil, args...)
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, []string{"gosec", "semgrep"}, report.Tools)
	assert.NotEmpty(t, report.ComparisonID)
	assert.Empty(t, report.RepositoryID)
	assert.Equal(t, 2, report.Overlap.TotalUniqueIssues)
	assert.Equal(t, 0, report.Overlap.CommonFindings)
	require.Len(t, report.DetailedUnique, 2)

	paths := []string{
		report.DetailedUnique[0].RepresentativeFinding.Location.Path,
		report.DetailedUnique[1].RepresentativeFinding.Location.Path,
	}
	assert.ElementsMatch(t, []string{"index.js", "db.go"}, paths, "paths are rebased onto --root")
}

func TestCompareCmd_Manifest(t *testing.T) {
	manifest := `[
		{"tool": "semgrep", "success": true, "repository_path": "/src/app", "payload": ` + semgrepFixture + `},
		{"tool": "bearer", "success": false, "error": "exit status 2"}
	]`
	out, err := executeCommand(t, nil, "compare", "--manifest", writeFile(t, "outputs.json", manifest))
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, []string{"bearer", "semgrep"}, report.Tools)
	assert.False(t, report.ToolStatus["bearer"].Success)
	assert.Equal(t, "exit status 2", report.ToolStatus["bearer"].Error)
	assert.Equal(t, 0, report.Effectiveness["bearer"].TotalDetections)
	assert.Equal(t, 1, report.Effectiveness["semgrep"].TotalDetections)
}

func TestCompareCmd_OutputFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.md")
	args := append([]string{"compare", "--root", "/src/app", "--format", "markdown", "-o", outputPath}, toolArgs(t)...)
	out, err := executeCommand(t, nil, args...)
	require.NoError(t, err)
	assert.Empty(t, out, "nothing is printed when writing to a file")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| semgrep |")
	assert.Contains(t, string(data), "| gosec |")
}

func TestCompareCmd_SARIF(t *testing.T) {
	args := append([]string{"compare", "--root", "/src/app", "-f", "sarif"}, toolArgs(t)...)
	out, err := executeCommand(t, nil, args...)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
}

func TestCompareCmd_Errors(t *testing.T) {
	t.Run("no inputs", func(t *testing.T) {
		_, err := executeCommand(t, nil, "compare")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no tool outputs given")
	})

	t.Run("invalid tool spec", func(t *testing.T) {
		_, err := executeCommand(t, nil, "compare", "--tool", "semgrep")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidToolSpec)
	})

	t.Run("missing tool file", func(t *testing.T) {
		_, err := executeCommand(t, nil, "compare", "--tool", "semgrep=/nonexistent/out.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read semgrep output")
	})

	t.Run("unknown format", func(t *testing.T) {
		args := append([]string{"compare", "--format", "html"}, toolArgs(t)...)
		_, err := executeCommand(t, nil, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format: html")
	})

	t.Run("manifest record without tool", func(t *testing.T) {
		path := writeFile(t, "outputs.json", `[{"success": true}]`)
		_, err := executeCommand(t, nil, "compare", "--manifest", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no tool name")
	})

	t.Run("persist requires repository id", func(t *testing.T) {
		args := append([]string{"compare", "--persist"}, toolArgs(t)...)
		_, err := executeCommand(t, nil, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--persist requires --repository-id")
	})

	t.Run("store unavailable", func(t *testing.T) {
		provider := &mockStoreProvider{err: errors.New("connection refused")}
		args := append([]string{"compare", "--persist", "-r", "repo-1"}, toolArgs(t)...)
		_, err := executeCommand(t, provider, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize store")
	})
}

func TestCompareCmd_Persist(t *testing.T) {
	st := new(mockStore)
	st.On("Migrate", mock.Anything).Return(nil).Once()
	st.On("StoreBatch", mock.Anything, "repo-1", mock.MatchedBy(func(fs []schemas.Finding) bool {
		return len(fs) == 2
	}), mock.MatchedBy(func(runs []schemas.ToolRun) bool {
		if len(runs) != 2 {
			return false
		}
		for _, run := range runs {
			if run.RepositoryID != "repo-1" || !run.Success || run.FindingCount != 1 {
				return false
			}
		}
		return true
	})).Return([]string{"a", "b"}, nil).Once()
	provider := &mockStoreProvider{store: st}

	args := append([]string{"compare", "--root", "/src/app", "--persist", "--migrate", "--repository-id", "repo-1"}, toolArgs(t)...)
	out, err := executeCommand(t, provider, args...)
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, "repo-1", report.RepositoryID)
	assert.Equal(t, 1, provider.cleaned)
	st.AssertExpectations(t)
}

func TestCompareCmd_NoPersistSkipsStore(t *testing.T) {
	provider := &mockStoreProvider{}
	args := append([]string{"compare", "--root", "/src/app", "-r", "repo-1"}, toolArgs(t)...)
	out, err := executeCommand(t, provider, args...)
	require.NoError(t, err)
	assert.Equal(t, "repo-1", decodeReport(t, out).RepositoryID)
	assert.Zero(t, provider.calls)
}

func TestCompareCmd_DefaultRootIsWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	absFile := filepath.ToSlash(filepath.Join(wd, "main.go"))

	gosec := `{"Issues": [{"severity": "HIGH", "cwe": {"id": "89"}, "rule_id": "G201",
		"details": "SQL string formatting", "file": "` + absFile + `", "line": "42"}]}`
	semgrep := `{"results": [{"check_id": "G201", "path": "main.go", "start": {"line": 42},
		"extra": {"message": "SQL string formatting", "severity": "ERROR", "metadata": {"cwe": "CWE-89"}}}]}`

	out, err := executeCommand(t, nil, "compare",
		"--tool", "gosec="+writeFile(t, "gosec.json", gosec),
		"--tool", "semgrep="+writeFile(t, "semgrep.json", semgrep))
	require.NoError(t, err)

	report := decodeReport(t, out)
	require.Len(t, report.DetailedOverlap, 1, "absolute and relative paths to one file must group")
	assert.Equal(t, "main.go", report.DetailedOverlap[0].RepresentativeFinding.Location.Path)
}

func TestReadToolSpec(t *testing.T) {
	path := writeFile(t, "semgrep.json", semgrepFixture)

	out, err := readToolSpec(" semgrep = " + path)
	require.NoError(t, err)
	assert.Equal(t, "semgrep", out.Tool)
	assert.True(t, out.Success)
	assert.JSONEq(t, semgrepFixture, string(out.Payload))

	for _, bad := range []string{"", "semgrep", "=path", "semgrep="} {
		_, err := readToolSpec(bad)
		assert.ErrorIs(t, err, ErrInvalidToolSpec, "spec %q", bad)
	}
}

func TestResolveRoot(t *testing.T) {
	cfg := newDefaultTestConfig()

	wd, err := os.Getwd()
	require.NoError(t, err)
	root, err := resolveRoot("", cfg.Compare())
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(wd), root, "defaults to the working directory")

	root, err = resolveRoot("/src/app/", cfg.Compare())
	require.NoError(t, err)
	assert.Equal(t, "/src/app", root)

	cfg.CompareCfg.RepositoryRoot = "/srv/repo"
	root, err = resolveRoot("", cfg.Compare())
	require.NoError(t, err)
	assert.Equal(t, "/srv/repo", root)
}
