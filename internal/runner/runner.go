// Package runner orchestrates the read -> parse -> report pipeline behind
// each mkparse subcommand.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/mkparse/internal/config"
	"github.com/donaldgifford/mkparse/internal/makefile"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFindings = 1
	ExitError    = 2
)

// StdinName labels input read from standard input.
const StdinName = "<stdin>"

// Mode selects what Run reports for each makefile.
type Mode int

const (
	ModeOutline Mode = iota
	ModeExpand
	ModeCheck
	ModeRender
)

// Options configures the runner behavior.
type Options struct {
	Mode  Mode
	Files []string

	// Config is used as is when set; otherwise ConfigPath (or the
	// discovered config file) is loaded.
	Config     *config.Config
	ConfigPath string

	Exprs     []string // expand: texts to expand instead of every macro.
	Overrides []string // NAME=value command-line assignments.
	Environ   []string // Defaults to os.Environ when the config asks for it.
	Diff      bool     // render: print a diff against the source.

	Quiet   bool
	Verbose bool
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// input is one parsed makefile and the text it came from.
type input struct {
	name string
	src  []byte
	mf   *makefile.Makefile
}

// Run executes opts.Mode over every file, or standard input when there
// are none, and returns an exit code.
func Run(ctx context.Context, opts *Options) int {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	logger := newLogger(opts)

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			writeErr(opts.Stderr, "mkparse: %v\n", err)
			return ExitError
		}
	}
	if cfg.Expand.Environment && opts.Environ == nil {
		opts.Environ = os.Environ()
	}

	inputs, err := parseAll(ctx, opts, cfg, logger)
	if err != nil {
		writeErr(opts.Stderr, "mkparse: %v\n", err)
		return ExitError
	}

	r := &report{opts: opts, cfg: cfg, logger: logger, multi: len(inputs) > 1}
	exitCode := ExitOK
	for i, in := range inputs {
		code, err := r.run(i, in)
		if err != nil {
			writeErr(opts.Stderr, "mkparse: %s: %v\n", in.name, err)
			code = ExitError
		}
		exitCode = max(exitCode, code)
	}
	return exitCode
}

func newLogger(opts *Options) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(opts.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseAll reads and parses every input concurrently, one Makefile per
// file. Results keep argument order. The first failure cancels the rest.
func parseAll(ctx context.Context, opts *Options, cfg *config.Config, logger *slog.Logger) ([]input, error) {
	if len(opts.Files) == 0 {
		src, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		in := input{name: StdinName, src: src, mf: newMakefile(opts, cfg, logger)}
		if err := in.mf.Parse(StdinName, bytes.NewReader(src)); err != nil {
			return nil, err
		}
		return []input{in}, nil
	}

	inputs := make([]input, len(opts.Files))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range opts.Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			mf := newMakefile(opts, cfg, logger)
			if err := mf.Parse(path, bytes.NewReader(src)); err != nil {
				return err
			}
			logger.Debug("parsed", "file", path, "nodes", mf.Tree().Len())
			inputs[i] = input{name: path, src: src, mf: mf}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func newMakefile(opts *Options, cfg *config.Config, logger *slog.Logger) *makefile.Makefile {
	mfOpts := []makefile.Option{
		makefile.WithLogger(logger),
		makefile.WithIncludeDirs(cfg.Parser.IncludeDirs...),
		makefile.WithBuiltins(cfg.Parser.Builtins),
		makefile.WithMaxDepth(cfg.Expand.MaxDepth),
		makefile.WithOverrides(opts.Overrides),
	}
	if cfg.Parser.BuiltinsFile != "" {
		mfOpts = append(mfOpts, makefile.WithBuiltinsFile(cfg.Parser.BuiltinsFile))
	}
	if cfg.Expand.Environment {
		mfOpts = append(mfOpts, makefile.WithEnvironment(opts.Environ))
	}
	return makefile.New(mfOpts...)
}

// writeOut writes to stdout.
func writeOut(w io.Writer, s string) {
	fmt.Fprint(w, s)
}

// writeErr formats and writes to stderr.
func writeErr(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
