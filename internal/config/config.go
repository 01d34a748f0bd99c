// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Compare() CompareConfig

	// Compare Setters
	SetCompareConcurrency(int)
	SetReportFormat(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	CompareCfg  CompareConfig  `mapstructure:"compare" yaml:"compare"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Compare() CompareConfig   { return c.CompareCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetCompareConcurrency(n int) { c.CompareCfg.Concurrency = n }
func (c *Config) SetReportFormat(f string)    { c.CompareCfg.ReportFormat = f }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details. An empty URL means
// nothing is persisted.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// CompareConfig configures the comparison run.
type CompareConfig struct {
	// Concurrency bounds how many adapters run at once.
	Concurrency  int    `mapstructure:"concurrency" yaml:"concurrency"`
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
	// RepositoryRoot is the default root for rebasing absolute paths.
	RepositoryRoot string `mapstructure:"repository_root" yaml:"repository_root"`
	// CategoryRules replaces the built-in classifier rules when non-empty.
	// Order is priority.
	CategoryRules []CategoryRuleConfig `mapstructure:"category_rules" yaml:"category_rules"`
	// CategoryRulesFile points to a YAML file of rules, used when
	// CategoryRules is empty.
	CategoryRulesFile string `mapstructure:"category_rules_file" yaml:"category_rules_file"`
	// Tools restricts which registered adapters are accepted. Empty allows all.
	Tools []string `mapstructure:"tools" yaml:"tools"`
}

// CategoryRuleConfig is one keyword rule for the category classifier.
type CategoryRuleConfig struct {
	Pattern  string `mapstructure:"pattern" yaml:"pattern"`
	Category string `mapstructure:"category" yaml:"category"`
}

// ReportFormats lists the formats the reporting package can write.
var ReportFormats = []string{"json", "yaml", "sarif", "markdown"}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scalpel-compare")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Database --
	v.SetDefault("database.url", "")

	// -- Compare --
	v.SetDefault("compare.concurrency", 4)
	v.SetDefault("compare.report_format", "json")
	v.SetDefault("compare.repository_root", "")
	v.SetDefault("compare.category_rules_file", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("database.url", "SCALPEL_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.LoggerCfg.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be one of console, json (got %q)", c.LoggerCfg.Format)
	}
	if err := c.CompareCfg.Validate(); err != nil {
		return fmt.Errorf("compare configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the CompareConfig settings.
func (c *CompareConfig) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if !IsReportFormat(c.ReportFormat) {
		return fmt.Errorf("report_format must be one of %s (got %q)", strings.Join(ReportFormats, ", "), c.ReportFormat)
	}
	for i, r := range c.CategoryRules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("category_rules[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks a single classifier rule.
func (r CategoryRuleConfig) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("pattern is required")
	}
	if _, ok := schemas.ParseCategory(r.Category); !ok {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	return nil
}

// IsReportFormat reports whether f names a supported report format.
func IsReportFormat(f string) bool {
	for _, known := range ReportFormats {
		if f == known {
			return true
		}
	}
	return false
}

// ToolAllowed reports whether the configured tool list admits name.
func (c CompareConfig) ToolAllowed(name string) bool {
	if len(c.Tools) == 0 {
		return true
	}
	for _, t := range c.Tools {
		if strings.EqualFold(strings.TrimSpace(t), name) {
			return true
		}
	}
	return false
}
