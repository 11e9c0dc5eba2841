package makefile

import (
	"strings"

	"github.com/donaldgifford/mkparse/internal/parser"
)

// ExpandString substitutes macro references in text once, without
// re-expanding substituted values.
func (m *Makefile) ExpandString(text string) string {
	return m.Expand(text, false)
}

// Expand substitutes $(NAME), ${NAME} and $X references in text. When
// recursive is set, substituted values are expanded in turn. "$$" becomes
// "$". References that do not resolve, that would recurse into themselves,
// or that exceed the depth limit are kept verbatim. Make functions such as
// $(subst ...) are not evaluated.
func (m *Makefile) Expand(text string, recursive bool) string {
	e := &expander{m: m, recursive: recursive, active: make(map[string]bool)}
	return e.expand(text, 0)
}

// Lookup returns the effective value of name and the origin of the
// definition that produced it.
//
// Precedence follows make: command-line assignments beat the makefile
// unless it uses override; makefile definitions beat the environment;
// built-ins apply only when nothing else defines the name. Within the
// makefile, = := ::= and != replace the value, ?= assigns only when the
// name is unset and += appends.
func (m *Makefile) Lookup(name string) (string, parser.Origin, bool) {
	var (
		value  string
		origin parser.Origin
		set    bool
	)
	assign := func(def *parser.MacroDef) {
		switch def.Op {
		case parser.OpConditional:
			if set {
				return
			}
			value = def.Value
		case parser.OpAppend:
			if value != "" && def.Value != "" {
				value += " "
			}
			value += def.Value
		default:
			value = def.Value
		}
		origin, set = def.Origin, true
	}

	commandLine := false
	for _, def := range m.overrides {
		if def.Name == name {
			assign(def)
			commandLine = true
		}
	}
	if !commandLine {
		for _, def := range m.environment {
			if def.Name == name {
				assign(def)
			}
		}
	}
	for _, n := range m.MacroDefinitionsFor(name) {
		def := n.Directive.(*parser.MacroDef)
		if def.TargetSpecific() || (commandLine && !def.Override) {
			continue
		}
		assign(def)
	}
	if set {
		return value, origin, true
	}

	if v, ok := m.loadBuiltins().lookup(name); ok {
		return v, parser.FromDefault, true
	}
	return "", parser.FromMakefile, false
}

type expander struct {
	m         *Makefile
	recursive bool
	active    map[string]bool // Names being expanded, for cycle detection.
}

func (e *expander) expand(text string, depth int) string {
	if !strings.Contains(text, "$") {
		return text
	}

	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '$' || i+1 >= len(text) {
			b.WriteByte(c)
			continue
		}

		next := text[i+1]
		switch next {
		case '$':
			b.WriteByte('$')
			i++
		case '(', '{':
			end := closing(text, i+1)
			if end < 0 {
				// Unterminated reference; keep the rest as written.
				b.WriteString(text[i:])
				return b.String()
			}
			b.WriteString(e.reference(text[i:end+1], text[i+2:end], depth))
			i = end
		default:
			b.WriteString(e.reference(text[i:i+2], string(next), depth))
			i++
		}
	}
	return b.String()
}

// reference resolves one macro reference. ref is the reference as
// written and name the text between its delimiters.
func (e *expander) reference(ref, name string, depth int) string {
	if strings.Contains(name, "$") {
		if depth >= e.m.maxDepth {
			return ref
		}
		name = e.expand(name, depth+1)
	}

	value, _, ok := e.m.Lookup(name)
	if !ok || e.active[name] {
		return ref
	}
	if !e.recursive || !strings.Contains(value, "$") {
		return value
	}
	if depth >= e.m.maxDepth {
		return ref
	}

	e.active[name] = true
	defer delete(e.active, name)
	return e.expand(value, depth+1)
}

// closing returns the index of the delimiter that closes the reference
// opened at text[open], or -1.
func closing(text string, open int) int {
	want := byte(')')
	if text[open] == '{' {
		want = '}'
	}
	depth := 0
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '(', '{':
			depth++
		case ')', '}':
			if depth == 0 {
				if text[i] == want {
					return i
				}
				continue
			}
			depth--
		}
	}
	return -1
}

// References returns the macro names referenced in text, in order of
// appearance. "$$" is not a reference. Substitution references such as
// $(SRCS:.c=.o) report the macro name. For function calls and computed
// names only the references nested inside them are reported.
func References(text string) []string {
	var names []string
	for i := 0; i < len(text); i++ {
		if text[i] != '$' || i+1 >= len(text) {
			continue
		}
		switch next := text[i+1]; next {
		case '$':
			i++
		case '(', '{':
			end := closing(text, i+1)
			if end < 0 {
				return names
			}
			names = append(names, innerReferences(text[i+2:end])...)
			i = end
		default:
			names = append(names, string(next))
			i++
		}
	}
	return names
}

func innerReferences(inner string) []string {
	name, rest, subst := strings.Cut(inner, ":")
	if name == "" || strings.ContainsAny(name, " \t$,") {
		return References(inner)
	}
	if subst {
		return append([]string{name}, References(rest)...)
	}
	return []string{name}
}
