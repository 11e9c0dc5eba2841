package outline

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Options controls text output.
type Options struct {
	Color     bool
	ShowLines bool
}

// Styles colors each part of a text outline row.
type Styles struct {
	File   lipgloss.Style
	Lines  lipgloss.Style
	Kind   lipgloss.Style
	Label  lipgloss.Style
	Rule   lipgloss.Style
	Detail lipgloss.Style
	Bad    lipgloss.Style
}

// DefaultStyles returns the styles used when color is enabled.
func DefaultStyles() *Styles {
	return &Styles{
		File:   lipgloss.NewStyle().Bold(true),
		Lines:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Kind:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Label:  lipgloss.NewStyle(),
		Rule:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Detail: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// WriteText writes the outline of file as indented text, one entry per
// line.
func WriteText(w io.Writer, file string, entries []Entry, opts Options) error {
	p := &printer{opts: opts, styles: DefaultStyles()}
	p.b.WriteString(p.paint(p.styles.File, file))
	p.b.WriteByte('\n')
	p.entries(entries, 0)
	_, err := io.WriteString(w, p.b.String())
	return err
}

type printer struct {
	b      strings.Builder
	opts   Options
	styles *Styles
}

func (p *printer) paint(s lipgloss.Style, text string) string {
	if !p.opts.Color || text == "" {
		return text
	}
	return s.Render(text)
}

func (p *printer) entries(entries []Entry, depth int) {
	for _, e := range entries {
		if p.opts.ShowLines {
			p.b.WriteString(p.paint(p.styles.Lines, fmt.Sprintf("%-8s", lineRange(e))))
		}
		p.b.WriteString(strings.Repeat("  ", depth))

		label := p.styles.Label
		switch e.Kind {
		case "rule", "inference", "static", "special":
			label = p.styles.Rule
		case "bad":
			label = p.styles.Bad
		}
		p.b.WriteString(join(
			p.paint(p.styles.Kind, e.Kind),
			p.paint(label, e.Label),
			p.paint(p.styles.Detail, e.Detail),
		))
		p.b.WriteByte('\n')
		p.entries(e.Children, depth+1)
	}
}

func lineRange(e Entry) string {
	if e.EndLine > e.Line {
		return fmt.Sprintf("%d-%d", e.Line, e.EndLine)
	}
	return fmt.Sprint(e.Line)
}

// Document is the YAML form of one file's outline.
type Document struct {
	File       string  `yaml:"file"`
	Directives []Entry `yaml:"directives"`
}

// WriteYAML writes the outline of file as a YAML document.
func WriteYAML(w io.Writer, file string, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{File: file, Directives: entries}); err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}
	return enc.Close()
}
