package check

import (
	"fmt"

	"github.com/donaldgifford/mkparse/internal/lint"
	"github.com/donaldgifford/mkparse/internal/makefile"
	"github.com/donaldgifford/mkparse/internal/parser"
)

// UnclosedBlock reports define and conditional blocks still open at the end
// of the file.
type UnclosedBlock struct{}

// Name returns the config key for this check.
func (*UnclosedBlock) Name() string { return "unclosed_block" }

func (*UnclosedBlock) Description() string {
	return "Reports define blocks without endef and conditionals without endif."
}

func (*UnclosedBlock) DefaultSeverity() lint.Severity { return lint.Error }

func (*UnclosedBlock) Check(m *makefile.Makefile) []lint.Finding {
	tree := m.Tree()
	var out []lint.Finding
	for _, id := range tree.Unclosed {
		n := tree.Node(id)
		var msg string
		switch d := n.Directive.(type) {
		case *parser.MacroDef:
			msg = fmt.Sprintf("define %s is missing endef", d.Name)
		case *parser.Conditional:
			msg = fmt.Sprintf("%s is missing endif", opening(d))
		default:
			continue
		}
		out = append(out, lint.Finding{Line: n.StartLine, Message: msg})
	}
	return out
}

func opening(c *parser.Conditional) string {
	if c.Condition == "" {
		return c.Keyword
	}
	return c.Keyword + " " + c.Condition
}
