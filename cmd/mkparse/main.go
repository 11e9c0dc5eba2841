// Package main is the entry point for mkparse.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/midbel/textwrap"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/mkparse/internal/config"
	"github.com/donaldgifford/mkparse/internal/rules"
	"github.com/donaldgifford/mkparse/internal/runner"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	v        = config.NewViper()
	cfg      *config.Config
	exitCode = runner.ExitOK
)

var rootCmd = &cobra.Command{
	Use:   "mkparse",
	Short: "Parse GNU Makefiles and Automake sources",
	Long: `Parse GNU Makefile and Automake source into a directive tree.

Every subcommand reads the named makefiles, or standard input when
none are given.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

var outlineCmd = &cobra.Command{
	Use:   "outline [files...]",
	Short: "Print the directive outline",
	RunE:  run(runner.ModeOutline),
}

var expandCmd = &cobra.Command{
	Use:   "expand [files...]",
	Short: "Expand macro references",
	Long: `Print every macro with its expanded value, or with -e the expansion
of the given text. Make functions are not evaluated.`,
	RunE: run(runner.ModeExpand),
}

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report defects such as unclosed blocks and undefined macros",
	Long: `Report defects as "file:line: severity: [check] message".

Exits 1 when a finding has error severity. Severities are set per check
under lint.rules in the config file.`,
	RunE: runCheck,
}

var renderCmd = &cobra.Command{
	Use:   "render [files...]",
	Short: "Print the makefile rendered back from its directive tree",
	RunE:  run(runner.ModeRender),
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version, commit, date)
	rootCmd.AddCommand(outlineCmd, expandCmd, checkCmd, renderCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to config file")
	pf.StringSliceP("include-dir", "I", nil, "directory to search for included makefiles")
	pf.Bool("no-builtins", false, "do not load the built-in macros and suffix rules")
	pf.String("builtins-file", "", "makefile to load built-ins from")
	pf.Bool("expand-includes", false, "follow include directives")
	pf.BoolP("quiet", "q", false, "suppress informational output")
	pf.BoolP("verbose", "v", false, "log files as they are processed")

	outlineCmd.Flags().String("format", "", "output format: text or yaml")
	outlineCmd.Flags().Bool("no-color", false, "disable styled output")
	outlineCmd.Flags().Bool("no-lines", false, "omit line numbers")

	expandCmd.Flags().StringArrayP("expr", "e", nil, "text to expand (repeatable)")
	expandCmd.Flags().BoolP("recursive", "r", true, "expand substituted values in turn")
	expandCmd.Flags().StringArrayP("define", "D", nil, "command-line assignment NAME=value (repeatable)")
	expandCmd.Flags().Bool("env", false, "seed macros from the environment")
	expandCmd.Flags().Int("max-depth", 0, "maximum expansion depth")

	checkCmd.Flags().Bool("list", false, "list the available checks and exit")

	renderCmd.Flags().Bool("diff", false, "print a unified diff from the source to the rendering")

	_ = v.BindPFlag(config.KeyIncludeDirs, pf.Lookup("include-dir"))
	_ = v.BindPFlag(config.KeyBuiltinsFile, pf.Lookup("builtins-file"))
	_ = v.BindPFlag(config.KeyExpandIncludes, pf.Lookup("expand-includes"))
	_ = v.BindPFlag(config.KeyFormat, outlineCmd.Flags().Lookup("format"))
	_ = v.BindPFlag(config.KeyRecursive, expandCmd.Flags().Lookup("recursive"))
	_ = v.BindPFlag(config.KeyEnvironment, expandCmd.Flags().Lookup("env"))
	_ = v.BindPFlag(config.KeyMaxDepth, expandCmd.Flags().Lookup("max-depth"))
}

// loadConfig reads the config file, then overlays MKPARSE_* variables and
// any flag the user set.
func loadConfig(cmd *cobra.Command, _ []string) error {
	// Negative flags have no config key of their own.
	flags := cmd.Flags()
	if off, _ := flags.GetBool("no-builtins"); off {
		v.Set(config.KeyBuiltins, false)
	}
	if flags.Lookup("no-color") != nil {
		if off, _ := flags.GetBool("no-color"); off {
			v.Set(config.KeyColor, false)
		}
	}
	if flags.Lookup("no-lines") != nil {
		if off, _ := flags.GetBool("no-lines"); off {
			v.Set(config.KeyShowLines, false)
		}
	}

	path, _ := flags.GetString("config")
	loaded, err := config.LoadWith(path, v)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg = loaded
	return nil
}

func run(mode runner.Mode) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		quiet, _ := flags.GetBool("quiet")
		verbose, _ := flags.GetBool("verbose")

		opts := &runner.Options{
			Mode:    mode,
			Files:   args,
			Config:  cfg,
			Quiet:   quiet,
			Verbose: verbose,
			Stdin:   cmd.InOrStdin(),
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
		}
		switch mode {
		case runner.ModeExpand:
			opts.Exprs, _ = flags.GetStringArray("expr")
			opts.Overrides, _ = flags.GetStringArray("define")
		case runner.ModeRender:
			opts.Diff, _ = flags.GetBool("diff")
		}

		exitCode = runner.Run(cmd.Context(), opts)
		return nil
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list"); list {
		listChecks(cmd.OutOrStdout())
		return nil
	}
	return run(runner.ModeCheck)(cmd, args)
}

func listChecks(w io.Writer) {
	for _, c := range rules.Checks() {
		sev := c.DefaultSeverity().String()
		if s, ok := cfg.Lint.Rules[c.Name()]; ok {
			sev = s
		}
		fmt.Fprintf(w, "%s (%s)\n", c.Name(), sev)
		for _, line := range strings.Split(textwrap.Wrap(c.Description()), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mkparse: %v\n", err)
		os.Exit(runner.ExitError)
	}
	os.Exit(exitCode)
}
