package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
	"github.com/xkilldash9x/scalpel-compare/internal/taxonomy"
)

type categoryRulesFile struct {
	Rules []CategoryRuleConfig `yaml:"rules"`
}

// LoadCategoryRules reads classifier rules from a YAML file. The document is
// either a list of rules or a mapping with a "rules" key.
func LoadCategoryRules(path string) ([]CategoryRuleConfig, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read category rules file: %w", err)
	}
	return ParseCategoryRules(data)
}

// ParseCategoryRules decodes and validates a YAML rules document.
func ParseCategoryRules(data []byte) ([]CategoryRuleConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse category rules: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	var rules []CategoryRuleConfig
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&rules); err != nil {
			return nil, fmt.Errorf("failed to decode category rules: %w", err)
		}
	case yaml.MappingNode:
		var file categoryRulesFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to decode category rules: %w", err)
		}
		rules = file.Rules
	default:
		return nil, fmt.Errorf("category rules must be a list or a mapping with a rules key (line %d)", root.Line)
	}

	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return rules, nil
}

// Classifier builds the category classifier this configuration describes:
// inline rules first, then the rules file, then the built-in defaults.
func (c CompareConfig) Classifier() (*taxonomy.Classifier, error) {
	rules := c.CategoryRules
	if len(rules) == 0 && c.CategoryRulesFile != "" {
		loaded, err := LoadCategoryRules(c.CategoryRulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	if len(rules) == 0 {
		return taxonomy.DefaultClassifier(), nil
	}

	converted := make([]taxonomy.CategoryRule, 0, len(rules))
	for _, r := range rules {
		converted = append(converted, taxonomy.CategoryRule{Pattern: r.Pattern, Category: schemas.Category(r.Category)})
	}
	return taxonomy.NewClassifier(converted)
}
