package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/index"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
	"github.com/smith-xyz/golang-callgraph-generator/pkg/utils"
)

//go:embed default_config.toml
var embeddedConfigData []byte

// LocalConfigFile overrides the embedded defaults when present in the working directory
const LocalConfigFile = "callgraph.toml"

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// Timer report formats
const (
	TimerTable      = "table"
	TimerPrometheus = "prometheus"
)

var (
	// ErrConflictingTargets is returned when both query modes are configured
	ErrConflictingTargets = errors.New("find_callers and find_callers_by_hash are mutually exclusive")
	// ErrInvalidConfig wraps every other validation failure
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the application configuration.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis" yaml:"analysis"`
	Query    QueryConfig    `toml:"query" yaml:"query"`
	Output   OutputConfig   `toml:"output" yaml:"output"`
	Packages PackageConfig  `toml:"packages" yaml:"packages"`
}

// AnalysisConfig controls graph construction.
type AnalysisConfig struct {
	Packages     []string `toml:"packages" yaml:"packages"`
	Deduplicate  bool     `toml:"deduplicate" yaml:"deduplicate"`
	WithoutArgs  bool     `toml:"without_args" yaml:"without_args"`
	ExpandStdlib bool     `toml:"expand_stdlib" yaml:"expand_stdlib"`
	Workers      int      `toml:"workers" yaml:"workers"`
	EntryPoints  []string `toml:"entry_points" yaml:"entry_points"`
}

// QueryConfig lists find-callers targets. Only one of the two may be set.
type QueryConfig struct {
	FindCallers       []string `toml:"find_callers" yaml:"find_callers"`
	FindCallersByHash []string `toml:"find_callers_by_hash" yaml:"find_callers_by_hash"`
}

// OutputConfig selects report formats and destinations.
type OutputConfig struct {
	Format      string `toml:"format" yaml:"format"`
	Dir         string `toml:"dir" yaml:"dir"`
	TimerOutput string `toml:"timer_output" yaml:"timer_output"`
	TimerFormat string `toml:"timer_format" yaml:"timer_format"`
}

// PackageConfig holds package classification patterns.
type PackageConfig struct {
	StdlibPatterns     []string `toml:"stdlib_patterns" yaml:"stdlib_patterns"`
	StdlibPrefixes     []string `toml:"stdlib_prefixes" yaml:"stdlib_prefixes"`
	DependencyPatterns []string `toml:"dependency_patterns" yaml:"dependency_patterns"`
	VendorPatterns     []string `toml:"vendor_patterns" yaml:"vendor_patterns"`
}

// EmbeddedConfig returns the configuration compiled into the binary.
func EmbeddedConfig() (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return &config, nil
}

// DefaultConfig returns the embedded configuration, overlaid with
// callgraph.toml from the working directory when one exists. Keys missing
// from the local file keep their embedded values.
func DefaultConfig() (*Config, error) {
	config, err := EmbeddedConfig()
	if err != nil {
		return nil, err
	}
	if utils.FileExists(LocalConfigFile) {
		if err := config.overlay(LocalConfigFile); err != nil {
			return nil, err
		}
	}
	return config, nil
}

// LoadFromFile loads configuration from a TOML file, or a YAML file when the
// extension is .yaml or .yml, on top of the embedded defaults.
func LoadFromFile(path string) (*Config, error) {
	config, err := EmbeddedConfig()
	if err != nil {
		return nil, err
	}
	if err := config.overlay(path); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - user supplied config file
	if err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	default:
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalidConfig, path, undecoded)
		}
	}
	return nil
}

// Validate checks option combinations that cannot be expressed in the file format.
func (c *Config) Validate() error {
	if len(c.Query.FindCallers) > 0 && len(c.Query.FindCallersByHash) > 0 {
		return ErrConflictingTargets
	}
	for _, h := range c.Query.FindCallersByHash {
		if _, err := index.ParseID(h); err != nil {
			return fmt.Errorf("%w: find_callers_by_hash: %v", ErrInvalidConfig, err)
		}
	}
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatDOT:
	default:
		return fmt.Errorf("%w: unsupported output format %q (text, json, dot)", ErrInvalidConfig, c.Output.Format)
	}
	switch c.Output.TimerFormat {
	case TimerTable, TimerPrometheus:
	default:
		return fmt.Errorf("%w: unsupported timer format %q (table, prometheus)", ErrInvalidConfig, c.Output.TimerFormat)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Analysis.Workers)
	}
	return nil
}

// HasQueries reports whether any find-callers target is configured.
func (c *Config) HasQueries() bool {
	return len(c.Query.FindCallers) > 0 || len(c.Query.FindCallersByHash) > 0
}

// ToAnalysisConfig extracts the options consumed by the analysis core.
func (c *Config) ToAnalysisConfig(verbose bool) models.AnalysisConfig {
	return models.AnalysisConfig{
		Deduplicate:  c.Analysis.Deduplicate,
		WithoutArgs:  c.Analysis.WithoutArgs,
		ExpandStdlib: c.Analysis.ExpandStdlib,
		Workers:      c.Analysis.Workers,
		EntryPoints:  utils.UniqueStrings(c.Analysis.EntryPoints),
		Verbose:      verbose,
	}
}

// IsStandardLibrary checks if a package is from the Go standard library.
func (c *Config) IsStandardLibrary(packagePath string) bool {
	for _, pattern := range c.Packages.StdlibPatterns {
		if packagePath == pattern || strings.HasPrefix(packagePath, pattern+"/") {
			return true
		}
	}

	for _, prefix := range c.Packages.StdlibPrefixes {
		if strings.HasPrefix(packagePath, prefix) {
			return true
		}
	}

	return false
}

// IsDependency checks if a package is a third-party dependency.
func (c *Config) IsDependency(packagePath string) bool {
	for _, pattern := range c.Packages.VendorPatterns {
		if strings.HasPrefix(packagePath, pattern) {
			return true
		}
	}

	for _, pattern := range c.Packages.DependencyPatterns {
		if strings.HasPrefix(packagePath, pattern) {
			return true
		}
	}

	return false
}

// IsUserDefined checks if a package is user-defined (not stdlib or dependency).
func (c *Config) IsUserDefined(packagePath string) bool {
	return !c.IsStandardLibrary(packagePath) && !c.IsDependency(packagePath)
}
