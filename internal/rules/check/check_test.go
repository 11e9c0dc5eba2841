package check

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/donaldgifford/mkparse/internal/lint"
	"github.com/donaldgifford/mkparse/internal/makefile"
)

func parse(t *testing.T, src string, opts ...makefile.Option) *makefile.Makefile {
	t.Helper()
	m := makefile.New(opts...)
	if err := m.Parse("Makefile", strings.NewReader(src)); err != nil {
		t.Fatal(err)
	}
	return m
}

func parseFiles(t *testing.T, files map[string]string, main string) (*makefile.Makefile, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m := makefile.New(makefile.WithBuiltins(false))
	if err := m.ParseFile(filepath.Join(dir, main)); err != nil {
		t.Fatal(err)
	}
	return m, dir
}

func TestStructuralChecks(t *testing.T) {
	tests := []struct {
		name  string
		check lint.Check
		src   string
		want  []lint.Finding
	}{
		{
			name:  "bad directive",
			check: &BadDirective{},
			src:   "all:\n\techo\nthis is bad\n",
			want:  []lint.Finding{{Line: 3, Message: `unrecognized line "this is bad"`}},
		},
		{
			name:  "bad directive inside conditional",
			check: &BadDirective{},
			src:   "ifdef X\n  nonsense here\nendif\n",
			want:  []lint.Finding{{Line: 2, Message: `unrecognized line "nonsense here"`}},
		},
		{
			name:  "clean file",
			check: &BadDirective{},
			src:   "A = 1\nall: $(A)\n\techo $@\n",
			want:  nil,
		},
		{
			name:  "unclosed conditional",
			check: &UnclosedBlock{},
			src:   "ifdef DEBUG\nA = 1\n",
			want:  []lint.Finding{{Line: 1, Message: "ifdef DEBUG is missing endif"}},
		},
		{
			name:  "unclosed define",
			check: &UnclosedBlock{},
			src:   "define CMD\necho hi\n",
			want:  []lint.Finding{{Line: 1, Message: "define CMD is missing endef"}},
		},
		{
			name:  "nested unclosed",
			check: &UnclosedBlock{},
			src:   "ifndef A\nifdef B\nX = 1\n",
			want: []lint.Finding{
				{Line: 1, Message: "ifndef A is missing endif"},
				{Line: 2, Message: "ifdef B is missing endif"},
			},
		},
		{
			name:  "closed blocks",
			check: &UnclosedBlock{},
			src:   "ifdef A\nelse\nendif\ndefine X\nendef\n",
			want:  nil,
		},
		{
			name:  "stray endif",
			check: &StrayTerminal{},
			src:   "A = 1\nendif\n",
			want:  []lint.Finding{{Line: 2, Message: "endif without matching if"}},
		},
		{
			name:  "stray else opens a branch",
			check: &StrayTerminal{},
			src:   "else\nA = 1\nendif\n",
			want:  []lint.Finding{{Line: 1, Message: "else without matching if"}},
		},
		{
			name:  "stray endef",
			check: &StrayTerminal{},
			src:   "endef\n",
			want:  []lint.Finding{{Line: 1, Message: "endef without matching define"}},
		},
		{
			name:  "extra endif after balanced block",
			check: &StrayTerminal{},
			src:   "ifdef A\nelse\nendif\nendif\n",
			want:  []lint.Finding{{Line: 4, Message: "endif without matching if"}},
		},
		{
			name:  "balanced",
			check: &StrayTerminal{},
			src:   "define X\nifdef Y\nendef\nifdef A\nifeq ($(B),1)\nendif\nelse\nendif\n",
			want:  nil,
		},
		{
			name:  "automake conditional in recipe",
			check: &StrayTerminal{},
			src:   "all:\n@if COND\n\tcmd1\n@endif\n\tcmd2\n",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := parse(t, tt.src, makefile.WithBuiltins(false))
			if diff := cmp.Diff(tt.want, tt.check.Check(m)); diff != "" {
				t.Errorf("findings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMissingInclude(t *testing.T) {
	m, _ := parseFiles(t, map[string]string{
		"main.mk":    "include present.mk\ninclude absent.mk\n-include gone.mk\nsinclude gone.mk\ninclude $(UNSET)\n",
		"present.mk": "X = 1\n",
	}, "main.mk")

	want := []lint.Finding{{Line: 2, Message: "included file absent.mk not found"}}
	if diff := cmp.Diff(want, (&MissingInclude{}).Check(m)); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestIncludeCycle(t *testing.T) {
	m, dir := parseFiles(t, map[string]string{
		"a.mk": "include b.mk\n",
		"b.mk": "X = 1\ninclude a.mk\n",
	}, "a.mk")

	want := []lint.Finding{{
		File:    filepath.Join(dir, "b.mk"),
		Line:    2,
		Message: "including " + filepath.Join(dir, "a.mk") + " again forms a cycle",
	}}
	if diff := cmp.Diff(want, (&IncludeCycle{}).Check(m)); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}

	m, _ = parseFiles(t, map[string]string{
		"a.mk": "include b.mk\n",
		"b.mk": "X = 1\n",
	}, "a.mk")
	if got := (&IncludeCycle{}).Check(m); got != nil {
		t.Errorf("no cycle expected, got %v", got)
	}
}

func TestUndefinedMacro(t *testing.T) {
	src := "CFLAGS = -O2\n" +
		"LDFLAGS = -s\n" +
		"all: $(OBJECTS)\n" +
		"\t$(CC) $(CFLAG) -o $@ $^ $(HOME) $$PATH\n" +
		"\t$(MAKE) -C sub $(@D) $(<F) $(CC)\n" +
		"prog: LOCAL = 1\n" +
		"ifdef DEBUG\n" +
		"EXTRA = -g\n" +
		"endif\n" +
		"check: $(LOCAL) $(EXTRA) $(patsubst %.c,%.o,$(SOURCES))\n"

	m := parse(t, src, makefile.WithBuiltins(false), makefile.WithEnvironment([]string{"HOME=/home/dev"}))
	want := []lint.Finding{
		{Line: 3, Message: "macro OBJECTS is not defined"},
		{Line: 4, Message: "macro CC is not defined"},
		{Line: 4, Message: "macro CFLAG is not defined; did you mean CFLAGS?"},
		{Line: 5, Message: "macro CC is not defined"},
		{Line: 10, Message: "macro SOURCES is not defined"},
	}
	if diff := cmp.Diff(want, (&UndefinedMacro{}).Check(m)); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestUndefinedMacroSources(t *testing.T) {
	m := parse(t, "all:\n\t$(CC) $(ARFLAGS)\n\t$(COMPILE.c) $<\n")
	if got := (&UndefinedMacro{}).Check(m); got != nil {
		t.Errorf("built-ins should define CC, got %v", got)
	}

	m = parse(t, "all:\n\t$(CC)\n", makefile.WithBuiltins(false), makefile.WithOverrides([]string{"CC=clang"}))
	if got := (&UndefinedMacro{}).Check(m); got != nil {
		t.Errorf("command-line assignment should define CC, got %v", got)
	}

	m, _ = parseFiles(t, map[string]string{
		"main.mk":  "include flags.mk\nall:\n\techo $(FLAGS)\n",
		"flags.mk": "ifdef X\nFLAGS = -x\nendif\n",
	}, "main.mk")
	if got := (&UndefinedMacro{}).Check(m); got != nil {
		t.Errorf("included definitions should count, got %v", got)
	}
}
