package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

func TestClassifyCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ruleID   string
		message  string
		existing schemas.Category
		expected schemas.Category
	}{
		{"existing wins", "sql-injection", "", schemas.CategoryXSS, schemas.CategoryXSS},
		{"sql in rule id", "go.lang.security.audit.sqli.string-formatted-query", "", "", schemas.CategorySQLInjection},
		{"xss in message", "rule-1", "Possible XSS via innerHTML", "", schemas.CategoryXSS},
		{"sql listed before xss", "xss-1", "value reaches SQL sink", "", schemas.CategorySQLInjection},
		{"case insensitive", "RULE", "Cross-Site Scripting", "", schemas.CategoryXSS},
		{"command", "detect-child_process", "", "", schemas.CategoryCommandInjection},
		{"traversal", "path-join", "", "", schemas.CategoryPathTraversal},
		{"ssrf", "", "Server-Side Request Forgery", "", schemas.CategorySSRF},
		{"csrf", "express-check-csurf-middleware", "missing CSRF protection", "", schemas.CategoryCSRF},
		{"secret", "generic-secret", "", "", schemas.CategoryHardcodedCredentials},
		{"deserialization", "avoid-pickle", "", "", schemas.CategoryInsecureDeserialization},
		{"crypto", "use-of-md5", "", "", schemas.CategoryCryptography},
		{"auth", "jwt-none-alg", "", "", schemas.CategoryAuthFlaws},
		{"session", "insecure-cookie", "", "", schemas.CategorySessionManagement},
		{"redirect", "open-redirect", "", "", schemas.CategoryOpenRedirect},
		{"redos", "detect-non-literal-regexp", "", "", schemas.CategoryReDoS},
		{"no match", "G104", "Errors unhandled.", "", schemas.CategoryOther},
		{"blank existing ignored", "rule", "nothing here", "  ", schemas.CategoryOther},
		{"all empty", "", "", "", schemas.CategoryOther},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ClassifyCategory(tt.ruleID, tt.message, tt.existing))
		})
	}
}

func TestDefaultRulesAreInVocabulary(t *testing.T) {
	t.Parallel()

	for i, r := range DefaultCategoryRules() {
		_, ok := schemas.ParseCategory(string(r.Category))
		assert.True(t, ok, "rule %d (%s) names unknown category %q", i, r.Pattern, r.Category)
		assert.NotEqual(t, schemas.CategoryOther, r.Category, "rule %d should not map to Other", i)
	}
}

func TestNewClassifier(t *testing.T) {
	t.Parallel()

	t.Run("custom order changes priority", func(t *testing.T) {
		t.Parallel()
		c, err := NewClassifier([]CategoryRule{
			{Pattern: "XSS", Category: schemas.CategoryXSS},
			{Pattern: "sql", Category: schemas.CategorySQLInjection},
		})
		require.NoError(t, err)
		assert.Equal(t, schemas.CategoryXSS, c.Classify("xss-1", "reaches sql sink", ""))
		assert.Equal(t, "xss", c.Rules()[0].Pattern, "patterns are stored lowercased")
	})

	t.Run("category names are canonicalized", func(t *testing.T) {
		t.Parallel()
		c, err := NewClassifier([]CategoryRule{{Pattern: "deser", Category: "insecure deserialization"}})
		require.NoError(t, err)
		assert.Equal(t, schemas.CategoryInsecureDeserialization, c.Classify("deser", "", ""))
	})

	t.Run("empty selects defaults", func(t *testing.T) {
		t.Parallel()
		c, err := NewClassifier(nil)
		require.NoError(t, err)
		assert.Len(t, c.Rules(), len(DefaultCategoryRules()))
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		t.Parallel()
		_, err := NewClassifier([]CategoryRule{{Pattern: "x", Category: "Memory Safety"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown category")
	})

	t.Run("rejects empty pattern", func(t *testing.T) {
		t.Parallel()
		_, err := NewClassifier([]CategoryRule{{Pattern: " ", Category: schemas.CategoryXSS}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pattern is empty")
	})
}

func TestRulesReturnsCopy(t *testing.T) {
	t.Parallel()

	c := DefaultClassifier()
	rules := c.Rules()
	rules[0] = CategoryRule{Pattern: "zzz", Category: schemas.CategoryOther}
	assert.Equal(t, "sql", c.Rules()[0].Pattern)
}
