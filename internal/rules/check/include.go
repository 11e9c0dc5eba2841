package check

import (
	"errors"
	"fmt"
	"strings"

	"github.com/donaldgifford/mkparse/internal/lint"
	"github.com/donaldgifford/mkparse/internal/makefile"
	"github.com/donaldgifford/mkparse/internal/parser"
)

// MissingInclude reports include directives naming files that exist
// neither beside the makefile nor in any include directory. -include and
// sinclude are exempt.
type MissingInclude struct{}

// Name returns the config key for this check.
func (*MissingInclude) Name() string { return "missing_include" }

func (*MissingInclude) Description() string {
	return "Reports include directives whose files cannot be found in the makefile's directory or the include directories."
}

func (*MissingInclude) DefaultSeverity() lint.Severity { return lint.Warn }

func (*MissingInclude) Check(m *makefile.Makefile) []lint.Finding {
	var out []lint.Finding
	m.Tree().Walk(func(n *parser.Node) bool {
		inc, ok := n.Directive.(*parser.Include)
		if !ok || inc.Optional() {
			return true
		}
		for _, raw := range inc.Filenames {
			for _, name := range parser.Fields(m.Expand(raw, true)) {
				// Unresolved references are reported by undefined_macro.
				if strings.Contains(name, "$") {
					continue
				}
				if _, found := m.FindInclude(name); !found {
					out = append(out, lint.Finding{
						Line:    n.StartLine,
						Message: fmt.Sprintf("included file %s not found", name),
					})
				}
			}
		}
		return true
	})
	return out
}

// IncludeCycle reports a makefile that includes itself, directly or through
// other included files.
type IncludeCycle struct{}

// Name returns the config key for this check.
func (*IncludeCycle) Name() string { return "include_cycle" }

func (*IncludeCycle) Description() string {
	return "Reports include chains that lead back to a file already being read."
}

func (*IncludeCycle) DefaultSeverity() lint.Severity { return lint.Error }

func (*IncludeCycle) Check(m *makefile.Makefile) []lint.Finding {
	_, err := m.ExpandedDirectives()
	if err == nil {
		return nil
	}
	var cycle *makefile.IncludeCycleError
	if errors.As(err, &cycle) {
		return []lint.Finding{{
			File:    cycle.File,
			Line:    cycle.Line,
			Message: fmt.Sprintf("including %s again forms a cycle", cycle.Path),
		}}
	}
	return []lint.Finding{{Message: fmt.Sprintf("reading included files: %v", err)}}
}
