package makefile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/donaldgifford/mkparse/internal/parser"
)

const queriesSrc = `CC = gcc
ifdef DEBUG
CFLAGS = -g
all: debug
endif
.PHONY: all
all: prog
prog: main.o
.c.o:
	$(CC) -c $<
%.o: %.c
a.o b.o: %.o: %.c
`

func firstTargets(nodes []*parser.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, string(n.Directive.(*parser.Rule).Target()))
	}
	return out
}

func TestQueries(t *testing.T) {
	m := parseString(t, queriesSrc)

	tests := []struct {
		name string
		got  []*parser.Node
		want []string
	}{
		{"Rules", m.Rules(), []string{"all", ".PHONY", "all", "prog", ".c.o", "%.o", "a.o"}},
		{"RulesFor all", m.RulesFor("all"), []string{"all", "all"}},
		{"RulesFor second target", m.RulesFor("b.o"), []string{"a.o"}},
		{"RulesFor unknown", m.RulesFor("nothing"), nil},
		{"InferenceRules", m.InferenceRules(), []string{".c.o", "a.o"}},
		{"TargetRules", m.TargetRules(), []string{"all", "all", "prog", "%.o"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, firstTargets(tt.got)); diff != "" {
				t.Errorf("targets mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := len(m.MacroDefinitions()); got != 2 {
		t.Errorf("MacroDefinitions: want 2, got %d", got)
	}
	defs := m.MacroDefinitionsFor("CFLAGS")
	if len(defs) != 1 || defs[0].StartLine != 3 {
		t.Fatalf("MacroDefinitionsFor(CFLAGS): got %v", defs)
	}
	if defs[0].Parent() == nil || defs[0].Parent().Kind() != parser.KindConditional {
		t.Error("CFLAGS should be nested in the conditional")
	}
	if m.MacroDefinitionsFor("") != nil {
		t.Error("empty name should match nothing")
	}
	if got := len(m.Directives()); got != 9 {
		t.Errorf("Directives: want 9 top-level nodes, got %d", got)
	}
	if m.URI() != "test.mk" || m.Tree().Filename != "test.mk" {
		t.Errorf("uri: got %q / %q", m.URI(), m.Tree().Filename)
	}
}

func TestParseReplacesTree(t *testing.T) {
	m := parseString(t, "A = 1\nall:\n")
	if err := m.Parse("other.mk", strings.NewReader("B = 2\n")); err != nil {
		t.Fatal(err)
	}
	if len(m.Rules()) != 0 || len(m.MacroDefinitionsFor("A")) != 0 {
		t.Error("second parse should discard the first tree")
	}
	if m.URI() != "other.mk" {
		t.Errorf("uri: want other.mk, got %q", m.URI())
	}
}

func TestParseFileMissing(t *testing.T) {
	err := New().ParseFile(filepath.Join(t.TempDir(), "Makefile"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestEmptyMakefile(t *testing.T) {
	m := New()
	if m.Rules() != nil || m.Directives() != nil {
		t.Error("new Makefile should have no directives")
	}
}

func TestBuiltins(t *testing.T) {
	m := New()

	if err := m.BuiltinsErr(); err != nil {
		t.Fatalf("embedded built-ins failed: %v", err)
	}
	macros := m.BuiltinMacroDefinitions()
	if len(macros) == 0 {
		t.Fatal("no built-in macros")
	}
	for _, n := range macros {
		if def := n.Directive.(*parser.MacroDef); def.Origin != parser.FromDefault {
			t.Errorf("%s: origin %v, want default", def.Name, def.Origin)
		}
	}

	var suffixes []string
	for _, n := range m.BuiltinInferenceRules() {
		suffixes = append(suffixes, string(n.Directive.(*parser.Rule).Target()))
	}
	for _, want := range []string{".c.o", ".cc.o", ".y.c", ".sh"} {
		found := false
		for _, s := range suffixes {
			found = found || s == want
		}
		if !found {
			t.Errorf("built-in rule %s missing", want)
		}
	}

	want := "cc $(CFLAGS) $(CPPFLAGS) $(TARGET_ARCH) -c"
	if got := m.Expand("$(COMPILE.c)", true); got != want {
		t.Errorf("COMPILE.c: want %q, got %q", want, got)
	}
}

func TestBuiltinsDisabled(t *testing.T) {
	m := New(WithBuiltins(false))
	if len(m.BuiltinMacroDefinitions()) != 0 || len(m.BuiltinInferenceRules()) != 0 {
		t.Error("disabled built-ins should be empty")
	}
	if m.BuiltinsErr() != nil {
		t.Errorf("disabling is not an error: %v", m.BuiltinsErr())
	}
}

func TestBuiltinsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.mk")
	if err := os.WriteFile(path, []byte("CC = mycc\n.x.y:\n\tconvert $< $@\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New(WithBuiltinsFile(path))
	if got, origin, _ := m.Lookup("CC"); got != "mycc" || origin != parser.FromDefault {
		t.Errorf("CC: got %q (%v)", got, origin)
	}
	if got := len(m.BuiltinInferenceRules()); got != 1 {
		t.Errorf("inference rules: want 1, got %d", got)
	}
}

func TestBuiltinsFileMissing(t *testing.T) {
	m := New(WithBuiltinsFile(filepath.Join(t.TempDir(), "missing.mk")))
	if !errors.Is(m.BuiltinsErr(), fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", m.BuiltinsErr())
	}
	if len(m.BuiltinMacroDefinitions()) != 0 {
		t.Error("failed load should leave an empty table")
	}
	if _, _, ok := m.Lookup("CC"); ok {
		t.Error("CC should be undefined")
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.mk":       "include common.mk\n-include missing.mk\nINC = inc.mk\ninclude $(INC)\nall:\n",
		"common.mk":     "X = 1\n",
		"extra/inc.mk":  "Y = 2\ninclude leaf.mk\n",
		"extra/leaf.mk": "Z = 3\n",
	})

	m := New(WithIncludeDirs(filepath.Join(dir, "extra")))
	if err := m.ParseFile(filepath.Join(dir, "main.mk")); err != nil {
		t.Fatal(err)
	}

	top := m.Directives()
	if diff := cmp.Diff([]string{filepath.Join(dir, "common.mk")}, m.ResolveInclude(top[0])); diff != "" {
		t.Errorf("common.mk mismatch (-want +got):\n%s", diff)
	}
	if got := m.ResolveInclude(top[1]); got != nil {
		t.Errorf("missing include should resolve to nothing, got %v", got)
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "extra", "inc.mk")}, m.ResolveInclude(top[3])); diff != "" {
		t.Errorf("expanded include mismatch (-want +got):\n%s", diff)
	}
	if m.ResolveInclude(top[4]) != nil {
		t.Error("a rule is not an include")
	}

	dirs, err := m.ExpandedDirectives()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, n := range dirs {
		if def, ok := n.Directive.(*parser.MacroDef); ok {
			names = append(names, def.Name)
		}
	}
	if diff := cmp.Diff([]string{"INC", "X", "Y", "Z"}, names); diff != "" {
		t.Errorf("expanded macros mismatch (-want +got):\n%s", diff)
	}
	if got := len(dirs); got != 5+1+2+1 {
		t.Errorf("expanded directives: want 9, got %d", got)
	}
}

func TestIncludeDirectories(t *testing.T) {
	m := New(WithIncludeDirs("a", "b"))
	dirs := m.IncludeDirectories()
	dirs[0] = "changed"
	if diff := cmp.Diff([]string{"a", "b"}, m.IncludeDirectories()); diff != "" {
		t.Errorf("include dirs mismatch (-want +got):\n%s", diff)
	}
	m.SetIncludeDirectories([]string{"c"})
	if diff := cmp.Diff([]string{"c"}, m.IncludeDirectories()); diff != "" {
		t.Errorf("include dirs mismatch (-want +got):\n%s", diff)
	}
}

func TestCyclicInclude(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"self", map[string]string{"a.mk": "include a.mk\n"}},
		{"pair", map[string]string{"a.mk": "include b.mk\n", "b.mk": "include a.mk\n"}},
		{"through conditional", map[string]string{"a.mk": "ifdef X\ninclude b.mk\nendif\n", "b.mk": "include c.mk\n", "c.mk": "include b.mk\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)
			m := New()
			if err := m.ParseFile(filepath.Join(dir, "a.mk")); err != nil {
				t.Fatal(err)
			}
			if _, err := m.ExpandedDirectives(); !errors.Is(err, ErrCyclicInclude) {
				t.Errorf("expected ErrCyclicInclude, got %v", err)
			}
		})
	}
}

func TestDiamondIncludeIsNotCyclic(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.mk": "include b.mk c.mk\n",
		"b.mk": "include d.mk\n",
		"c.mk": "include d.mk\n",
		"d.mk": "D = 1\n",
	})
	m := New()
	if err := m.ParseFile(filepath.Join(dir, "a.mk")); err != nil {
		t.Fatal(err)
	}
	dirs, err := m.ExpandedDirectives()
	if err != nil {
		t.Fatalf("diamond include reported as error: %v", err)
	}
	if got := len(dirs); got != 5 {
		t.Errorf("want 5 directives, got %d", got)
	}
}

func TestTargetFileQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.o")
	target := parser.Target(path)
	if target.Exists() || !target.LastModified().IsZero() {
		t.Error("missing target should not exist")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !target.Exists() || target.LastModified().IsZero() {
		t.Error("target should exist after writing it")
	}
}

func TestIncludeCycleErrorLocation(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.mk": "X = 1\ninclude b.mk\n",
		"b.mk": "\n\ninclude a.mk\n",
	})
	m := New()
	if err := m.ParseFile(filepath.Join(dir, "a.mk")); err != nil {
		t.Fatal(err)
	}
	_, err := m.ExpandedDirectives()
	var cycle *IncludeCycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected IncludeCycleError, got %v", err)
	}
	if cycle.File != filepath.Join(dir, "b.mk") || cycle.Line != 3 {
		t.Errorf("location: got %s:%d", cycle.File, cycle.Line)
	}
	if cycle.Path != filepath.Join(dir, "a.mk") {
		t.Errorf("path: got %s", cycle.Path)
	}
}
