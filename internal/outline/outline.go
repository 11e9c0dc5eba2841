// Package outline summarizes a directive tree as a nested list of labelled
// entries, rendered as styled text or YAML.
package outline

import (
	"strings"

	"github.com/donaldgifford/mkparse/internal/parser"
)

// Entry is one outline row.
type Entry struct {
	Kind     string  `yaml:"kind"`
	Label    string  `yaml:"label"`
	Detail   string  `yaml:"detail,omitempty"`
	Line     int     `yaml:"line"`
	EndLine  int     `yaml:"end_line"`
	Children []Entry `yaml:"children,omitempty"`
}

// Build returns the outline of nodes and their descendants. Blank lines
// and endif/endef markers are left out.
func Build(nodes []*parser.Node) []Entry {
	var out []Entry
	for _, n := range nodes {
		kind, label, detail, ok := Describe(n.Directive)
		if !ok {
			continue
		}
		out = append(out, Entry{
			Kind:     kind,
			Label:    label,
			Detail:   detail,
			Line:     n.StartLine,
			EndLine:  n.EndLine,
			Children: Build(n.Children()),
		})
	}
	return out
}

// Describe returns the outline kind, label and detail of d. ok is false
// for directives the outline omits.
func Describe(d parser.Directive) (kind, label, detail string, ok bool) {
	switch d := d.(type) {
	case *parser.Rule:
		return ruleKind(d.Type), ruleLabel(d), ruleDetail(d), true
	case *parser.MacroDef:
		kind = "macro"
		if d.Define {
			kind = "define"
		}
		return kind, d.Name, macroDetail(d), true
	case *parser.Conditional:
		return "conditional", join(d.Keyword, d.Condition), "", true
	case *parser.Command:
		return "command", commandLabel(d), parenthesize(d.ConfigPrefix), true
	case *parser.Comment:
		return "comment", strings.TrimSpace(d.Text), "", true
	case *parser.Include:
		detail := ""
		if d.Optional() {
			detail = "(optional)"
		}
		return "include", strings.Join(d.Filenames, " "), detail, true
	case *parser.VPath:
		return "vpath", d.Pattern, strings.Join(d.Directories, " "), true
	case *parser.UnExport:
		return "unexport", d.Names, "", true
	case *parser.ConfigMacro:
		return "config", d.Name, "", true
	case *parser.BadDirective:
		return "bad", strings.TrimSpace(d.Line), "", true
	case *parser.EmptyLine, *parser.Terminal:
		return "", "", "", false
	}
	return "", "", "", false
}

func ruleKind(t parser.RuleType) string {
	switch t {
	case parser.RuleInference:
		return "inference"
	case parser.RuleStatic:
		return "static"
	case parser.RuleSpecial:
		return "special"
	default:
		return "rule"
	}
}

func ruleLabel(r *parser.Rule) string {
	targets := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		targets[i] = string(t)
	}
	label := strings.Join(targets, " ") + ":"
	if r.DoubleColon {
		label += ":"
	}
	return label
}

func ruleDetail(r *parser.Rule) string {
	if r.Type == parser.RuleStatic {
		return join(r.TargetPattern+":", strings.Join(r.PrereqPatterns, " "))
	}
	detail := strings.Join(r.Prerequisites, " ")
	if len(r.OrderOnly) > 0 {
		detail = join(detail, "| "+strings.Join(r.OrderOnly, " "))
	}
	return detail
}

func macroDetail(m *parser.MacroDef) string {
	var detail string
	switch {
	case m.Define:
		if m.Op != parser.OpRecursive {
			detail = m.Op.String()
		}
	case m.Export && m.Op == parser.OpRecursive && m.Value == "":
		// "export NAME" assigns nothing.
	default:
		detail = join(m.Op.String(), firstLine(m.Value))
	}

	var mods []string
	if m.Override {
		mods = append(mods, "override")
	}
	if m.Export {
		mods = append(mods, "export")
	}
	if m.Target != "" {
		mods = append(mods, "target "+m.Target)
	}
	return join(detail, parenthesize(strings.Join(mods, ", ")))
}

func commandLabel(c *parser.Command) string {
	var prefix string
	if c.Silent {
		prefix += "@"
	}
	if c.IgnoreError {
		prefix += "-"
	}
	if c.AlwaysRun {
		prefix += "+"
	}
	return prefix + firstLine(c.Text)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func parenthesize(s string) string {
	if s == "" {
		return ""
	}
	return "(" + s + ")"
}

// join concatenates the non-empty parts with single spaces.
func join(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}
