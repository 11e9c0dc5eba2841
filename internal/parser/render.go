package parser

import "strings"

// String renders the tree back into makefile text. The result parses to
// the same structure but is not byte-identical to the source: spacing is
// normalized and continuation lines are folded.
func (t *Tree) String() string {
	var b strings.Builder
	for _, n := range t.Top() {
		n.write(&b)
		b.WriteByte('\n')
	}
	return b.String()
}

// String renders the node and its children, one line per directive,
// without a trailing newline.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	writeDirective(b, n.Directive)
	for _, child := range n.Children() {
		b.WriteByte('\n')
		child.write(b)
	}
}

func writeDirective(b *strings.Builder, d Directive) {
	switch d := d.(type) {
	case *Rule:
		writeRule(b, d)
	case *MacroDef:
		writeMacro(b, d)
	case *Conditional:
		b.WriteString(d.Keyword)
		if d.Condition != "" {
			b.WriteByte(' ')
			b.WriteString(d.Condition)
		}
	case *Command:
		writeCommand(b, d)
	case *Comment:
		b.WriteByte('#')
		b.WriteString(d.Text)
	case *EmptyLine:
		// Nothing; the caller separates lines.
	case *Terminal:
		b.WriteString(d.Keyword)
	case *Include:
		b.WriteString(d.Keyword)
		writeList(b, d.Filenames)
	case *VPath:
		b.WriteString("vpath")
		if d.Pattern != "" {
			b.WriteByte(' ')
			b.WriteString(d.Pattern)
		}
		writeList(b, d.Directories)
	case *UnExport:
		b.WriteString("unexport")
		if d.Names != "" {
			b.WriteByte(' ')
			b.WriteString(d.Names)
		}
	case *ConfigMacro:
		b.WriteString(d.Name)
	case *BadDirective:
		b.WriteString(d.Line)
	}
}

func writeRule(b *strings.Builder, r *Rule) {
	for i, t := range r.Targets {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(string(t))
	}
	b.WriteByte(':')
	if r.DoubleColon {
		b.WriteByte(':')
	}

	if r.Type == RuleStatic {
		b.WriteByte(' ')
		b.WriteString(r.TargetPattern)
		b.WriteByte(':')
		writeList(b, r.PrereqPatterns)
		return
	}

	writeList(b, r.Prerequisites)
	if len(r.OrderOnly) > 0 {
		b.WriteString(" |")
		writeList(b, r.OrderOnly)
	}
}

func writeMacro(b *strings.Builder, m *MacroDef) {
	if m.Target != "" {
		b.WriteString(m.Target)
		b.WriteString(": ")
	}
	if m.Override {
		b.WriteString("override ")
	}
	if m.Define {
		b.WriteString("define ")
		b.WriteString(m.Name)
		if m.Op != OpRecursive {
			b.WriteByte(' ')
			b.WriteString(m.Op.String())
		}
		if m.Value != "" {
			b.WriteByte('\n')
			b.WriteString(m.Value)
		}
		return
	}
	if m.Export {
		b.WriteString("export")
		if m.Name == "" {
			return
		}
		b.WriteByte(' ')
	}
	b.WriteString(m.Name)
	if m.Export && m.Value == "" && m.Op == OpRecursive {
		// "export NAME" without an assignment.
		return
	}
	b.WriteByte(' ')
	b.WriteString(m.Op.String())
	if m.Value != "" {
		b.WriteByte(' ')
		b.WriteString(m.Value)
	}
}

func writeCommand(b *strings.Builder, c *Command) {
	b.WriteString(c.ConfigPrefix)
	b.WriteByte('\t')
	if c.Silent {
		b.WriteByte('@')
	}
	if c.IgnoreError {
		b.WriteByte('-')
	}
	if c.AlwaysRun {
		b.WriteByte('+')
	}
	// Continuation lines of a recipe carry their own leading tab.
	b.WriteString(strings.ReplaceAll(c.Text, "\n", "\n\t"))
}

func writeList(b *strings.Builder, items []string) {
	for _, s := range items {
		b.WriteByte(' ')
		b.WriteString(s)
	}
}
