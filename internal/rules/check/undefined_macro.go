package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/midbel/distance"

	"github.com/donaldgifford/mkparse/internal/lint"
	"github.com/donaldgifford/mkparse/internal/makefile"
	"github.com/donaldgifford/mkparse/internal/parser"
)

// Variables make defines itself.
var makeVariables = map[string]bool{
	"MAKE":          true,
	"MAKEFLAGS":     true,
	"MAKECMDGOALS":  true,
	"MAKEFILES":     true,
	"MAKEFILE_LIST": true,
	"MAKELEVEL":     true,
	"MAKEOVERRIDES": true,
	"MAKE_VERSION":  true,
	"MAKE_HOST":     true,
	"MAKE_RESTARTS": true,
	"MFLAGS":        true,
	"CURDIR":        true,
	"SHELL":         true,
	"VPATH":         true,
	"SUFFIXES":      true,
	".DEFAULT_GOAL": true,
	".FEATURES":     true,
	".INCLUDE_DIRS": true,
	".LIBPATTERNS":  true,
	".RECIPEPREFIX": true,
	".SHELLFLAGS":   true,
	".VARIABLES":    true,
}

// automatic reports whether name is an automatic variable such as $@ or
// $(<D).
func automatic(name string) bool {
	if name == "" || !strings.ContainsRune("@<^+?*%|", rune(name[0])) {
		return false
	}
	return len(name) == 1 || (len(name) == 2 && (name[1] == 'D' || name[1] == 'F'))
}

// UndefinedMacro reports references to macros that no makefile, included
// file, environment entry, command-line assignment or built-in defines.
type UndefinedMacro struct{}

// Name returns the config key for this check.
func (*UndefinedMacro) Name() string { return "undefined_macro" }

func (*UndefinedMacro) Description() string {
	return "Reports macro references that nothing defines, suggesting similarly named macros."
}

func (*UndefinedMacro) DefaultSeverity() lint.Severity { return lint.Warn }

func (*UndefinedMacro) Check(m *makefile.Makefile) []lint.Finding {
	defined := definedNames(m)
	candidates := make([]string, 0, len(defined))
	for name := range defined {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)

	var out []lint.Finding
	m.Tree().Walk(func(n *parser.Node) bool {
		seen := make(map[string]bool)
		for _, text := range referencingText(n.Directive) {
			for _, name := range makefile.References(text) {
				if seen[name] || defined[name] || automatic(name) || makeVariables[name] {
					continue
				}
				seen[name] = true
				if _, _, ok := m.Lookup(name); ok {
					continue
				}
				out = append(out, lint.Finding{
					Line:    n.StartLine,
					Message: undefinedMessage(name, candidates),
				})
			}
		}
		return true
	})
	return out
}

func undefinedMessage(name string, candidates []string) string {
	msg := fmt.Sprintf("macro %s is not defined", name)
	if similar := distance.Levenshtein(name, candidates); len(similar) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(similar, ", "))
	}
	return msg
}

// definedNames collects every macro name defined by the makefile, its
// included files and the built-in table. Target-specific definitions count.
func definedNames(m *makefile.Makefile) map[string]bool {
	names := make(map[string]bool)
	var add func(nodes []*parser.Node)
	add = func(nodes []*parser.Node) {
		for _, n := range nodes {
			if def, ok := n.Directive.(*parser.MacroDef); ok {
				names[def.Name] = true
			}
			add(n.Children())
		}
	}

	nodes, err := m.ExpandedDirectives()
	if err != nil {
		// include_cycle reports the error; fall back to this file alone.
		nodes = m.Directives()
	}
	add(nodes)
	add(m.BuiltinMacroDefinitions())
	return names
}

// referencingText returns the fields of d that make expands.
func referencingText(d parser.Directive) []string {
	switch d := d.(type) {
	case *parser.MacroDef:
		return []string{d.Value}
	case *parser.Rule:
		targets := make([]string, len(d.Targets))
		for i, t := range d.Targets {
			targets[i] = string(t)
		}
		return []string{
			strings.Join(targets, " "),
			strings.Join(d.Prerequisites, " "),
			strings.Join(d.OrderOnly, " "),
		}
	case *parser.Command:
		return []string{d.Text}
	case *parser.Conditional:
		return []string{d.Condition}
	case *parser.Include:
		return d.Filenames
	case *parser.VPath:
		return append([]string{d.Pattern}, d.Directories...)
	default:
		return nil
	}
}
