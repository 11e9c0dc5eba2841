package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func TestOverlayExplicitValues(t *testing.T) {
	v := viper.New()
	v.Set(KeyMaxDepth, 8)
	v.Set(KeyBuiltins, false)
	v.Set(KeyFormat, "yaml")

	cfg := DefaultConfig()
	if err := Overlay(cfg, v); err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	want.Expand.MaxDepth = 8
	want.Parser.Builtins = false
	want.Output.Format = "yaml"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlayEnvironment(t *testing.T) {
	t.Setenv("MKPARSE_PARSER_INCLUDE_DIRS", "include /opt/mk")
	t.Setenv("MKPARSE_EXPAND_RECURSIVE", "false")
	t.Setenv("MKPARSE_OUTPUT_COLOR", "false")

	cfg := DefaultConfig()
	if err := Overlay(cfg, NewViper()); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"include", "/opt/mk"}, cfg.Parser.IncludeDirs); diff != "" {
		t.Errorf("IncludeDirs mismatch (-want +got):\n%s", diff)
	}
	if cfg.Expand.Recursive {
		t.Error("Recursive: got true, want false")
	}
	if cfg.Output.Color {
		t.Error("Color: got true, want false")
	}
	if cfg.Expand.MaxDepth != 64 {
		t.Errorf("MaxDepth: got %d, want 64 (untouched)", cfg.Expand.MaxDepth)
	}
}

func TestOverlayValidates(t *testing.T) {
	v := viper.New()
	v.Set(KeyFormat, "xml")
	if err := Overlay(DefaultConfig(), v); err == nil {
		t.Error("expected validation error for unknown format")
	}
}
