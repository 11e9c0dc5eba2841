// Package makefile wraps a parsed directive tree with the queries an
// editor or linter needs: rules by target, macro definitions by name,
// textual macro expansion, include resolution and the GNU make built-ins.
package makefile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/donaldgifford/mkparse/internal/parser"
)

// DefaultMaxDepth bounds recursive macro expansion.
const DefaultMaxDepth = 64

// Makefile is one parsed makefile. A Makefile is not safe for concurrent
// use; separate instances are independent.
type Makefile struct {
	uri  string
	tree *parser.Tree

	includeDirs []string
	logger      *slog.Logger
	maxDepth    int

	useBuiltins  bool
	builtinsFile string
	builtins     *builtinTable
	builtinsErr  error

	environment []*parser.MacroDef
	overrides   []*parser.MacroDef
}

// Option configures a Makefile.
type Option func(*Makefile)

// WithIncludeDirs sets the directories searched for included files after
// the directory of the including file.
func WithIncludeDirs(dirs ...string) Option {
	return func(m *Makefile) { m.includeDirs = append([]string(nil), dirs...) }
}

// WithLogger sets the logger used for include and built-in diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Makefile) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBuiltins enables or disables the built-in macro and rule table.
func WithBuiltins(enabled bool) Option {
	return func(m *Makefile) { m.useBuiltins = enabled }
}

// WithBuiltinsFile replaces the embedded GNU defaults with the makefile
// at path.
func WithBuiltinsFile(path string) Option {
	return func(m *Makefile) { m.builtinsFile = path }
}

// WithEnvironment supplies NAME=value pairs, as from os.Environ, that
// makefile definitions may override.
func WithEnvironment(env []string) Option {
	return func(m *Makefile) {
		m.environment = m.environment[:0]
		for _, kv := range env {
			name, value, ok := strings.Cut(kv, "=")
			if !ok || name == "" {
				continue
			}
			m.environment = append(m.environment, &parser.MacroDef{
				Name:   name,
				Value:  value,
				Op:     parser.OpRecursive,
				Origin: parser.FromEnvironment,
			})
		}
	}
}

// WithOverrides supplies command-line assignments such as "CC=clang" or
// "CFLAGS:=-O0". They win over makefile definitions unless the makefile
// uses override.
func WithOverrides(assignments []string) Option {
	return func(m *Makefile) {
		m.overrides = m.overrides[:0]
		for _, a := range assignments {
			tree := parser.ParseString(a)
			for _, n := range tree.Top() {
				def, ok := n.Directive.(*parser.MacroDef)
				if !ok || def.TargetSpecific() {
					continue
				}
				def.Origin = parser.FromCommandLine
				m.overrides = append(m.overrides, def)
			}
		}
	}
}

// WithMaxDepth bounds recursive expansion. Values below one select
// DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(m *Makefile) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}
		m.maxDepth = depth
	}
}

// New returns an empty Makefile. Call Parse or ParseFile to populate it.
func New(opts ...Option) *Makefile {
	m := &Makefile{
		tree:        parser.NewTree(""),
		logger:      slog.New(slog.DiscardHandler),
		maxDepth:    DefaultMaxDepth,
		useBuiltins: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ParseFile parses the makefile at path.
func (m *Makefile) ParseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening makefile: %w", err)
	}
	defer f.Close()
	return m.Parse(path, f)
}

// Parse replaces the tree with the one read from r. Only read failures
// are returned; malformed lines become BadDirective nodes.
func (m *Makefile) Parse(uri string, r io.Reader) error {
	tree, err := parser.Parse(uri, r)
	if err != nil {
		return err
	}
	m.uri = uri
	m.tree = tree
	m.logger.Debug("parsed makefile", "uri", uri, "nodes", tree.Len(), "lines", tree.EndLine)
	return nil
}

// URI returns the name the makefile was parsed under.
func (m *Makefile) URI() string { return m.uri }

// Tree returns the directive tree.
func (m *Makefile) Tree() *parser.Tree { return m.tree }

// Directives returns the top-level directives in source order.
func (m *Makefile) Directives() []*parser.Node { return m.tree.Top() }

// SetIncludeDirectories replaces the include search path.
func (m *Makefile) SetIncludeDirectories(dirs []string) {
	m.includeDirs = append([]string(nil), dirs...)
}

// IncludeDirectories returns a copy of the include search path.
func (m *Makefile) IncludeDirectories() []string {
	return append([]string(nil), m.includeDirs...)
}

// Rules returns every rule in the file, including rules nested in
// conditional blocks.
func (m *Makefile) Rules() []*parser.Node {
	return collect(m.tree, func(n *parser.Node) bool {
		return n.Kind() == parser.KindRule
	})
}

// RulesFor returns the rules that name target.
func (m *Makefile) RulesFor(target parser.Target) []*parser.Node {
	return collect(m.tree, func(n *parser.Node) bool {
		r, ok := n.Directive.(*parser.Rule)
		return ok && r.HasTarget(target)
	})
}

// InferenceRules returns suffix and static pattern rules.
func (m *Makefile) InferenceRules() []*parser.Node {
	return inferenceRules(m.tree)
}

// TargetRules returns ordinary target rules.
func (m *Makefile) TargetRules() []*parser.Node {
	return collect(m.tree, func(n *parser.Node) bool {
		r, ok := n.Directive.(*parser.Rule)
		return ok && r.Type == parser.RuleTarget
	})
}

// MacroDefinitions returns every variable definition in source order.
func (m *Makefile) MacroDefinitions() []*parser.Node {
	return macroDefinitions(m.tree, "")
}

// MacroDefinitionsFor returns the definitions of name in source order.
func (m *Makefile) MacroDefinitionsFor(name string) []*parser.Node {
	if name == "" {
		return nil
	}
	return macroDefinitions(m.tree, name)
}

func inferenceRules(t *parser.Tree) []*parser.Node {
	return collect(t, func(n *parser.Node) bool {
		r, ok := n.Directive.(*parser.Rule)
		return ok && (r.Type == parser.RuleInference || r.Type == parser.RuleStatic)
	})
}

func macroDefinitions(t *parser.Tree, name string) []*parser.Node {
	return collect(t, func(n *parser.Node) bool {
		def, ok := n.Directive.(*parser.MacroDef)
		return ok && (name == "" || def.Name == name)
	})
}

func collect(t *parser.Tree, match func(*parser.Node) bool) []*parser.Node {
	var out []*parser.Node
	t.Walk(func(n *parser.Node) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}
