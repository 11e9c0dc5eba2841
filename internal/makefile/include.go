package makefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/donaldgifford/mkparse/internal/parser"
)

// ErrCyclicInclude is returned when an included file includes itself,
// directly or through other files.
var ErrCyclicInclude = errors.New("cyclic include")

// IncludeCycleError locates the include directive that closed a cycle.
type IncludeCycleError struct {
	File string // The including file.
	Line int
	Path string // The file included a second time.
}

func (e *IncludeCycleError) Error() string {
	return fmt.Sprintf("%s:%d: including %s: %v", e.File, e.Line, e.Path, ErrCyclicInclude)
}

func (e *IncludeCycleError) Unwrap() error { return ErrCyclicInclude }

// ResolveInclude returns the existing files named by an include node.
// File names are macro-expanded, then looked up relative to the including
// file's directory and then each include directory. Names that resolve
// nowhere are skipped.
func (m *Makefile) ResolveInclude(n *parser.Node) []string {
	inc, ok := n.Directive.(*parser.Include)
	if !ok {
		return nil
	}

	var paths []string
	for _, raw := range inc.Filenames {
		for _, name := range parser.Fields(m.Expand(raw, true)) {
			path, ok := m.FindInclude(name)
			if !ok {
				m.logger.Debug("include not found", "file", m.uri, "line", n.StartLine, "name", name)
				continue
			}
			paths = append(paths, path)
		}
	}
	return paths
}

// FindInclude looks name up the way ResolveInclude does, without macro
// expansion.
func (m *Makefile) FindInclude(name string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, isFile(name)
	}
	dirs := append([]string{filepath.Dir(m.uri)}, m.includeDirs...)
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if isFile(path) {
			return path, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// ExpandedDirectives returns the top-level directives followed by those
// of every included file, recursively. Included files are re-read on
// every call.
func (m *Makefile) ExpandedDirectives() ([]*parser.Node, error) {
	active := map[string]bool{canonical(m.uri): true}
	return m.expandedDirectives(active)
}

func (m *Makefile) expandedDirectives(active map[string]bool) ([]*parser.Node, error) {
	out := m.Directives()
	includes := collect(m.tree, func(n *parser.Node) bool {
		return n.Kind() == parser.KindInclude
	})

	for _, inc := range includes {
		for _, path := range m.ResolveInclude(inc) {
			key := canonical(path)
			if active[key] {
				return nil, &IncludeCycleError{File: m.uri, Line: inc.StartLine, Path: path}
			}

			child := m.included()
			if err := child.ParseFile(path); err != nil {
				return nil, err
			}

			active[key] = true
			dirs, err := child.expandedDirectives(active)
			delete(active, key)
			if err != nil {
				return nil, err
			}
			out = append(out, dirs...)
		}
	}
	return out, nil
}

// included returns an empty Makefile that shares m's settings.
func (m *Makefile) included() *Makefile {
	return &Makefile{
		tree:         parser.NewTree(""),
		includeDirs:  m.includeDirs,
		logger:       m.logger,
		maxDepth:     m.maxDepth,
		useBuiltins:  m.useBuiltins,
		builtinsFile: m.builtinsFile,
		builtins:     m.builtins,
		builtinsErr:  m.builtinsErr,
		environment:  m.environment,
		overrides:    m.overrides,
	}
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
