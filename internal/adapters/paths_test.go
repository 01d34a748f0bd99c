package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		root     string
		path     string
		expected string
	}{
		{"absolute under root", "/src/app", "/src/app/index.js", "index.js"},
		{"root with trailing slash", "/src/app/", "/src/app/lib/a.js", "lib/a.js"},
		{"file scheme", "/src/app", "file:///src/app/lib/a.js", "lib/a.js"},
		{"file scheme on root", "file:///src/app", "/src/app/lib/a.js", "lib/a.js"},
		{"dot slash", "/src/app", "./lib/a.js", "lib/a.js"},
		{"repeated dot slash", "", "././lib/a.js", "lib/a.js"},
		{"already relative", "/src/app", "lib/a.js", "lib/a.js"},
		{"windows separators", `C:\src\app`, `lib\a.js`, "lib/a.js"},
		{"outside root kept", "/src/app", "/usr/lib/node/x.js", "/usr/lib/node/x.js"},
		{"sibling prefix is not under root", "/src/app", "/src/application/x.js", "/src/application/x.js"},
		{"root itself", "/src/app", "/src/app", ""},
		{"filesystem root", "/", "/etc/passwd", "etc/passwd"},
		{"no root", "", "/src/app/index.js", "/src/app/index.js"},
		{"dot dot cleaned", "/src/app", "/src/app/lib/../index.js", "index.js"},
		{"empty", "/src/app", "  ", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, RebasePath(tt.root, tt.path))
		})
	}
}

func TestURIToPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "db layer/db.js", uriToPath("/src/app", "file:///src/app/db%20layer/db.js"))
	assert.Equal(t, "bad%zz.js", uriToPath("", "bad%zz.js"))
}

func TestResolveRoot(t *testing.T) {
	t.Parallel()

	wd, err := os.Getwd()
	require.NoError(t, err)
	wd = filepath.ToSlash(wd)

	tests := []struct {
		name     string
		base     string
		rel      string
		expected string
	}{
		{"both empty", "", "", ""},
		{"absolute base", "/src/app", "", "/src/app"},
		{"absolute record path wins", "/elsewhere", "/work/repo", "/work/repo"},
		{"relative record path joins base", "/work", "services/api", "/work/services/api"},
		{"file uri", "", "file:///work/repo", "/work/repo"},
		{"relative record path without base", "", "repo", wd + "/repo"},
		{"relative base", "checkout", "", wd + "/checkout"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ResolveRoot(tt.base, tt.rel))
		})
	}
}
