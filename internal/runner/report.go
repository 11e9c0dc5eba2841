package runner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/donaldgifford/mkparse/internal/config"
	"github.com/donaldgifford/mkparse/internal/lint"
	"github.com/donaldgifford/mkparse/internal/outline"
	"github.com/donaldgifford/mkparse/internal/parser"
	"github.com/donaldgifford/mkparse/internal/rules"
	"github.com/donaldgifford/mkparse/pkg/diff"
)

type report struct {
	opts   *Options
	cfg    *config.Config
	logger *slog.Logger
	multi  bool // More than one input; separate their output.
}

func (r *report) run(i int, in input) (int, error) {
	switch r.opts.Mode {
	case ModeOutline:
		return ExitOK, r.outline(i, in)
	case ModeExpand:
		r.expand(i, in)
		return ExitOK, nil
	case ModeCheck:
		return r.check(in), nil
	case ModeRender:
		return r.render(i, in), nil
	default:
		return ExitError, fmt.Errorf("unknown mode %d", r.opts.Mode)
	}
}

func (r *report) outline(i int, in input) error {
	nodes := in.mf.Directives()
	if r.cfg.Parser.ExpandIncludes {
		var err error
		if nodes, err = in.mf.ExpandedDirectives(); err != nil {
			return err
		}
	}
	entries := outline.Build(nodes)

	if r.cfg.Output.Format == "yaml" {
		if i > 0 {
			writeOut(r.opts.Stdout, "---\n")
		}
		return outline.WriteYAML(r.opts.Stdout, in.name, entries)
	}
	if i > 0 {
		writeOut(r.opts.Stdout, "\n")
	}
	return outline.WriteText(r.opts.Stdout, in.name, entries, outline.Options{
		Color:     r.cfg.Output.Color,
		ShowLines: r.cfg.Output.ShowLines,
	})
}

// expand prints each -e text expanded, or every macro the makefile defines
// with its effective value.
func (r *report) expand(i int, in input) {
	if r.multi {
		if i > 0 {
			writeOut(r.opts.Stdout, "\n")
		}
		writeOut(r.opts.Stdout, "# "+in.name+"\n")
	}

	recursive := r.cfg.Expand.Recursive
	if len(r.opts.Exprs) > 0 {
		for _, text := range r.opts.Exprs {
			writeOut(r.opts.Stdout, in.mf.Expand(text, recursive)+"\n")
		}
		return
	}

	seen := make(map[string]bool)
	for _, n := range in.mf.MacroDefinitions() {
		def := n.Directive.(*parser.MacroDef)
		if def.TargetSpecific() || seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		value, _, ok := in.mf.Lookup(def.Name)
		if !ok {
			continue
		}
		value = strings.ReplaceAll(in.mf.Expand(value, recursive), "\n", "\\n")
		writeOut(r.opts.Stdout, strings.TrimRight(def.Name+" = "+value, " ")+"\n")
	}
}

func (r *report) check(in input) int {
	if r.cfg.Lint.Excluded(in.name) {
		r.logger.Debug("excluded from checks", "file", in.name)
		return ExitOK
	}

	findings := lint.Run(in.mf, &r.cfg.Lint, rules.Checks())
	for _, f := range findings {
		if r.opts.Quiet && f.Severity != lint.Error {
			continue
		}
		writeOut(r.opts.Stdout, f.String()+"\n")
	}
	if lint.HasErrors(findings) {
		return ExitFindings
	}
	return ExitOK
}

// render prints the re-rendered tree, or with Diff the unified diff from
// the source to it. A non-empty diff exits with ExitFindings.
func (r *report) render(i int, in input) int {
	out := in.mf.Tree().String()
	if !r.opts.Diff {
		if r.multi && i > 0 {
			writeOut(r.opts.Stdout, "\n")
		}
		writeOut(r.opts.Stdout, out)
		return ExitOK
	}

	d := diff.File(in.name, string(in.src), out)
	if d == "" {
		return ExitOK
	}
	writeOut(r.opts.Stdout, d)
	return ExitFindings
}
