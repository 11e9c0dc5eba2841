package makefile

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/donaldgifford/mkparse/internal/parser"
)

//go:embed builtin/gnu.mk
var gnuDefaults string

// builtinTable is a parsed defaults file whose macros are flagged
// FromDefault.
type builtinTable struct {
	tree      *parser.Tree
	macros    []*parser.Node
	inference []*parser.Node
}

var (
	gnuOnce  sync.Once
	gnuTable *builtinTable
)

// defaultBuiltins parses the embedded GNU defaults once per process.
func defaultBuiltins() *builtinTable {
	gnuOnce.Do(func() {
		gnuTable = newBuiltinTable(parser.ParseString(gnuDefaults))
	})
	return gnuTable
}

func loadBuiltinsFile(path string) (*builtinTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening builtins: %w", err)
	}
	defer f.Close()
	tree, err := parser.Parse(path, f)
	if err != nil {
		return nil, err
	}
	return newBuiltinTable(tree), nil
}

func newBuiltinTable(tree *parser.Tree) *builtinTable {
	b := &builtinTable{
		tree:      tree,
		macros:    macroDefinitions(tree, ""),
		inference: inferenceRules(tree),
	}
	for _, n := range b.macros {
		n.Directive.(*parser.MacroDef).Origin = parser.FromDefault
	}
	return b
}

// lookup returns the last built-in definition of name.
func (b *builtinTable) lookup(name string) (string, bool) {
	for i := len(b.macros) - 1; i >= 0; i-- {
		if def := b.macros[i].Directive.(*parser.MacroDef); def.Name == name {
			return def.Value, true
		}
	}
	return "", false
}

// loadBuiltins resolves the built-in table on first use. A failure
// leaves an empty table and is reported by BuiltinsErr.
func (m *Makefile) loadBuiltins() *builtinTable {
	if m.builtins != nil {
		return m.builtins
	}
	switch {
	case !m.useBuiltins:
		m.builtins = newBuiltinTable(parser.NewTree(""))
	case m.builtinsFile != "":
		b, err := loadBuiltinsFile(m.builtinsFile)
		if err != nil {
			m.logger.Warn("built-in rules unavailable", "path", m.builtinsFile, "error", err)
			m.builtinsErr = err
			b = newBuiltinTable(parser.NewTree(""))
		}
		m.builtins = b
	default:
		m.builtins = defaultBuiltins()
	}
	return m.builtins
}

// BuiltinMacroDefinitions returns the default macro definitions.
func (m *Makefile) BuiltinMacroDefinitions() []*parser.Node {
	return append([]*parser.Node(nil), m.loadBuiltins().macros...)
}

// BuiltinInferenceRules returns the default suffix rules.
func (m *Makefile) BuiltinInferenceRules() []*parser.Node {
	return append([]*parser.Node(nil), m.loadBuiltins().inference...)
}

// BuiltinsErr reports why the built-in table is empty, if it failed to
// load.
func (m *Makefile) BuiltinsErr() error {
	m.loadBuiltins()
	return m.builtinsErr
}
