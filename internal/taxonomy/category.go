// File: internal/taxonomy/category.go
package taxonomy

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// CategoryRule pairs a keyword with the category it implies.
type CategoryRule struct {
	Pattern  string           `mapstructure:"pattern" yaml:"pattern" json:"pattern"`
	Category schemas.Category `mapstructure:"category" yaml:"category" json:"category"`
}

// DefaultCategoryRules returns the built-in keyword list. Order is the
// priority: the first keyword found in "ruleID message" decides, so a finding
// mentioning both "sql" and "xss" is SQL Injection.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{"sql", schemas.CategorySQLInjection},
		{"xss", schemas.CategoryXSS},
		{"cross-site scripting", schemas.CategoryXSS},
		{"cross site scripting", schemas.CategoryXSS},
		{"command injection", schemas.CategoryCommandInjection},
		{"os command", schemas.CategoryCommandInjection},
		{"child_process", schemas.CategoryCommandInjection},
		{"exec", schemas.CategoryCommandInjection},
		{"shell", schemas.CategoryCommandInjection},
		{"traversal", schemas.CategoryPathTraversal},
		{"path", schemas.CategoryPathTraversal},
		{"ssrf", schemas.CategorySSRF},
		{"server-side request", schemas.CategorySSRF},
		{"csrf", schemas.CategoryCSRF},
		{"cross-site request", schemas.CategoryCSRF},
		{"hardcoded", schemas.CategoryHardcodedCredentials},
		{"hard-coded", schemas.CategoryHardcodedCredentials},
		{"secret", schemas.CategoryHardcodedCredentials},
		{"password", schemas.CategoryHardcodedCredentials},
		{"credential", schemas.CategoryHardcodedCredentials},
		{"api key", schemas.CategoryHardcodedCredentials},
		{"deserializ", schemas.CategoryInsecureDeserialization},
		{"pickle", schemas.CategoryInsecureDeserialization},
		{"unserialize", schemas.CategoryInsecureDeserialization},
		{"crypto", schemas.CategoryCryptography},
		{"cipher", schemas.CategoryCryptography},
		{"md5", schemas.CategoryCryptography},
		{"sha1", schemas.CategoryCryptography},
		{"weak hash", schemas.CategoryCryptography},
		{"random", schemas.CategoryCryptography},
		{"auth", schemas.CategoryAuthFlaws},
		{"jwt", schemas.CategoryAuthFlaws},
		{"session", schemas.CategorySessionManagement},
		{"cookie", schemas.CategorySessionManagement},
		{"redirect", schemas.CategoryOpenRedirect},
		{"redos", schemas.CategoryReDoS},
		{"regex", schemas.CategoryReDoS},
	}
}

// Classifier resolves categories with an ordered keyword list. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier validates rules and builds a classifier. Patterns are matched
// lowercased; empty patterns and categories outside the vocabulary are rejected.
// A nil or empty slice selects DefaultCategoryRules.
func NewClassifier(rules []CategoryRule) (*Classifier, error) {
	if len(rules) == 0 {
		rules = DefaultCategoryRules()
	}
	compiled := make([]CategoryRule, 0, len(rules))
	for i, r := range rules {
		pattern := strings.ToLower(strings.TrimSpace(r.Pattern))
		if pattern == "" {
			return nil, fmt.Errorf("category rule %d: pattern is empty", i)
		}
		category, ok := schemas.ParseCategory(string(r.Category))
		if !ok {
			return nil, fmt.Errorf("category rule %d (%q): unknown category %q", i, r.Pattern, r.Category)
		}
		compiled = append(compiled, CategoryRule{Pattern: pattern, Category: category})
	}
	return &Classifier{rules: compiled}, nil
}

// DefaultClassifier returns a classifier over DefaultCategoryRules.
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultCategoryRules())
	if err != nil {
		// The built-in list is static; failing here is a programming error.
		panic(fmt.Sprintf("invalid default category rules: %v", err))
	}
	return c
}

// Rules returns a copy of the active rule list in priority order.
func (c *Classifier) Rules() []CategoryRule {
	return append([]CategoryRule(nil), c.rules...)
}

// Classify returns existing unchanged when it is non-empty. Otherwise the
// first rule whose pattern occurs in ruleID or message wins; no match is Other.
func (c *Classifier) Classify(ruleID, message string, existing schemas.Category) schemas.Category {
	if strings.TrimSpace(string(existing)) != "" {
		return existing
	}
	haystack := strings.ToLower(ruleID + " " + message)
	for _, r := range c.rules {
		if strings.Contains(haystack, r.Pattern) {
			return r.Category
		}
	}
	return schemas.CategoryOther
}

// ClassifyCategory classifies with the default rules.
func ClassifyCategory(ruleID, message string, existing schemas.Category) schemas.Category {
	return defaultClassifier.Classify(ruleID, message, existing)
}

var defaultClassifier = DefaultClassifier()
