package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Keys shared by the config file, MKPARSE_* environment variables and
// command-line flags.
const (
	KeyIncludeDirs    = "parser.include_dirs"
	KeyBuiltins       = "parser.builtins"
	KeyBuiltinsFile   = "parser.builtins_file"
	KeyExpandIncludes = "parser.expand_includes"
	KeyRecursive      = "expand.recursive"
	KeyMaxDepth       = "expand.max_depth"
	KeyEnvironment    = "expand.environment"
	KeyFormat         = "output.format"
	KeyColor          = "output.color"
	KeyShowLines      = "output.show_lines"
)

// NewViper returns a viper instance that reads MKPARSE_* variables, so
// that parser.include_dirs comes from MKPARSE_PARSER_INCLUDE_DIRS.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MKPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Overlay copies every key that v has explicitly set, from the
// environment or a changed flag, over cfg, and validates the result.
func Overlay(cfg *Config, v *viper.Viper) error {
	if v.IsSet(KeyIncludeDirs) {
		cfg.Parser.IncludeDirs = v.GetStringSlice(KeyIncludeDirs)
	}
	if v.IsSet(KeyBuiltins) {
		cfg.Parser.Builtins = v.GetBool(KeyBuiltins)
	}
	if v.IsSet(KeyBuiltinsFile) {
		cfg.Parser.BuiltinsFile = v.GetString(KeyBuiltinsFile)
	}
	if v.IsSet(KeyExpandIncludes) {
		cfg.Parser.ExpandIncludes = v.GetBool(KeyExpandIncludes)
	}
	if v.IsSet(KeyRecursive) {
		cfg.Expand.Recursive = v.GetBool(KeyRecursive)
	}
	if v.IsSet(KeyMaxDepth) {
		cfg.Expand.MaxDepth = v.GetInt(KeyMaxDepth)
	}
	if v.IsSet(KeyEnvironment) {
		cfg.Expand.Environment = v.GetBool(KeyEnvironment)
	}
	if v.IsSet(KeyFormat) {
		cfg.Output.Format = v.GetString(KeyFormat)
	}
	if v.IsSet(KeyColor) {
		cfg.Output.Color = v.GetBool(KeyColor)
	}
	if v.IsSet(KeyShowLines) {
		cfg.Output.ShowLines = v.GetBool(KeyShowLines)
	}
	return cfg.Validate()
}
