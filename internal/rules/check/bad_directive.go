// Package check holds the lint checks registered by package rules.
package check

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/mkparse/internal/lint"
	"github.com/donaldgifford/mkparse/internal/makefile"
	"github.com/donaldgifford/mkparse/internal/parser"
)

// BadDirective reports lines that matched no makefile construct.
type BadDirective struct{}

// Name returns the config key for this check.
func (*BadDirective) Name() string { return "bad_directive" }

func (*BadDirective) Description() string {
	return "Reports lines that are not a rule, macro, conditional, include or other recognised directive."
}

func (*BadDirective) DefaultSeverity() lint.Severity { return lint.Error }

// Check walks the whole tree, conditional bodies included.
func (*BadDirective) Check(m *makefile.Makefile) []lint.Finding {
	var out []lint.Finding
	m.Tree().Walk(func(n *parser.Node) bool {
		if bad, ok := n.Directive.(*parser.BadDirective); ok {
			out = append(out, lint.Finding{
				Line:    n.StartLine,
				Message: fmt.Sprintf("unrecognized line %q", strings.TrimSpace(bad.Line)),
			})
		}
		return true
	})
	return out
}
