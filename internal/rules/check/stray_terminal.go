package check

import (
	"sort"

	"github.com/donaldgifford/mkparse/internal/lint"
	"github.com/donaldgifford/mkparse/internal/makefile"
	"github.com/donaldgifford/mkparse/internal/parser"
)

// StrayTerminal reports else, endif and endef lines that close nothing.
type StrayTerminal struct{}

// Name returns the config key for this check.
func (*StrayTerminal) Name() string { return "stray_terminal" }

func (*StrayTerminal) Description() string {
	return "Reports else and endif without an open conditional, and endef without an open define."
}

func (*StrayTerminal) DefaultSeverity() lint.Severity { return lint.Error }

// Check replays block nesting in line order. A stray else still opens a
// branch, as it does in the parser, so its endif is not reported again.
func (*StrayTerminal) Check(m *makefile.Makefile) []lint.Finding {
	var blocks []*parser.Node
	m.Tree().Walk(func(n *parser.Node) bool {
		switch d := n.Directive.(type) {
		case *parser.Conditional, *parser.Terminal:
			blocks = append(blocks, n)
		case *parser.MacroDef:
			if d.Define {
				blocks = append(blocks, n)
			}
		}
		return true
	})
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].StartLine < blocks[j].StartLine
	})

	var (
		out     []lint.Finding
		conds   int
		defines int
	)
	stray := func(n *parser.Node, keyword, opener string) {
		out = append(out, lint.Finding{
			Line:    n.StartLine,
			Message: keyword + " without matching " + opener,
		})
	}
	for _, n := range blocks {
		switch d := n.Directive.(type) {
		case *parser.MacroDef:
			defines++
		case *parser.Conditional:
			if d.Type == parser.CondElse {
				if conds == 0 {
					stray(n, d.Keyword, "if")
					conds++
				}
				continue
			}
			conds++
		case *parser.Terminal:
			if d.Keyword == "endef" {
				if defines == 0 {
					stray(n, d.Keyword, "define")
					continue
				}
				defines--
				continue
			}
			if conds == 0 {
				stray(n, d.Keyword, "if")
				continue
			}
			conds--
		}
	}
	return out
}
