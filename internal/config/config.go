// Package config defines the configuration types and defaults for mkparse.
package config

import (
	"fmt"
	"path/filepath"
)

// Config is the top-level configuration.
type Config struct {
	Parser ParserConfig `yaml:"parser"`
	Expand ExpandConfig `yaml:"expand"`
	Output OutputConfig `yaml:"output"`
	Lint   LintConfig   `yaml:"lint"`
}

// ParserConfig controls how makefiles are read.
type ParserConfig struct {
	IncludeDirs    []string `yaml:"include_dirs"`
	Builtins       bool     `yaml:"builtins"`
	BuiltinsFile   string   `yaml:"builtins_file"`
	ExpandIncludes bool     `yaml:"expand_includes"`
}

// ExpandConfig controls macro expansion.
type ExpandConfig struct {
	Recursive bool `yaml:"recursive"`
	MaxDepth  int  `yaml:"max_depth"`

	// Environment seeds the macro table from the process environment.
	Environment bool `yaml:"environment"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format    string `yaml:"format"` // text or yaml
	Color     bool   `yaml:"color"`
	ShowLines bool   `yaml:"show_lines"`
}

// Severity levels accepted in LintConfig.Rules.
const (
	SeverityOff   = "off"
	SeverityWarn  = "warn"
	SeverityError = "error"
)

// LintConfig holds check settings. Rules maps a check name to a severity;
// checks that are not listed keep their default severity. Exclude lists
// glob patterns of files that are not checked.
type LintConfig struct {
	Rules   map[string]string `yaml:"rules"`
	Exclude []string          `yaml:"exclude"`
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			Builtins: true,
		},
		Expand: ExpandConfig{
			Recursive: true,
			MaxDepth:  64,
		},
		Output: OutputConfig{
			Format:    "text",
			Color:     true,
			ShowLines: true,
		},
	}
}

// Validate reports the first setting that has no meaning.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "yaml":
	default:
		return fmt.Errorf("output.format: unknown format %q (want text or yaml)", c.Output.Format)
	}
	if c.Expand.MaxDepth < 1 {
		return fmt.Errorf("expand.max_depth: must be positive, got %d", c.Expand.MaxDepth)
	}
	for name, sev := range c.Lint.Rules {
		switch sev {
		case SeverityOff, SeverityWarn, SeverityError:
		default:
			return fmt.Errorf("lint.rules.%s: unknown severity %q", name, sev)
		}
	}
	for _, pattern := range c.Lint.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("lint.exclude: %q: %w", pattern, err)
		}
	}
	return nil
}

// Excluded reports whether path matches one of the lint exclude globs,
// either as given or by its base name.
func (c *LintConfig) Excluded(path string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}
