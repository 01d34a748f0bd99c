// File: cmd/tools_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsCmd(t *testing.T) {
	out, err := executeCommand(t, nil, "tools")
	require.NoError(t, err)

	for _, tool := range []string{"bearer", "codeql", "gosec", "semgrep", "snyk"} {
		assert.Regexp(t, tool+`\s+yes\s+`, out)
	}
	assert.Contains(t, out, "error=high")
	assert.Contains(t, out, "note=low")
}

func TestToolsCmd_RespectsConfiguredTools(t *testing.T) {
	configFile := writeFile(t, "config.yaml", "compare:\n  tools: [gosec]\n")
	out, err := executeCommand(t, nil, "--config", configFile, "tools")
	require.NoError(t, err)

	assert.Regexp(t, `gosec\s+yes`, out)
	assert.Regexp(t, `semgrep\s+no`, out)
}
