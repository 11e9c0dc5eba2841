// Package parser reads GNU Makefile and Automake source into a directive
// tree with source-line provenance.
package parser

import (
	"os"
	"time"
)

// ID addresses a node within its Tree.
type ID int

// None is the parent of top-level nodes.
const None ID = -1

// Kind classifies a directive.
type Kind int

const (
	// KindRule is a target, inference, static pattern or special rule.
	KindRule Kind = iota
	// KindMacro is a variable definition (NAME = value, define ... endef).
	KindMacro
	// KindConditional is an if/ifdef/ifndef/ifeq/ifneq/else block.
	KindConditional
	// KindCommand is a recipe line.
	KindCommand
	// KindComment is the text after an unescaped '#'.
	KindComment
	// KindEmptyLine is a blank line.
	KindEmptyLine
	// KindTerminal is an endif or endef marker.
	KindTerminal
	// KindInclude is an include, -include or sinclude directive.
	KindInclude
	// KindVPath is a vpath directive.
	KindVPath
	// KindUnExport is an unexport directive.
	KindUnExport
	// KindConfigMacro is an autoconf @NAME@ placeholder line.
	KindConfigMacro
	// KindBad is a line that matched no grammar production.
	KindBad
)

var kindNames = [...]string{
	KindRule:        "Rule",
	KindMacro:       "Macro",
	KindConditional: "Conditional",
	KindCommand:     "Command",
	KindComment:     "Comment",
	KindEmptyLine:   "EmptyLine",
	KindTerminal:    "Terminal",
	KindInclude:     "Include",
	KindVPath:       "VPath",
	KindUnExport:    "UnExport",
	KindConfigMacro: "ConfigMacro",
	KindBad:         "BadDirective",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(?)"
	}
	return kindNames[k]
}

// Directive is the payload of a node. The set of implementations is closed.
type Directive interface {
	Kind() Kind
	directive()
}

// Target names a rule target. Two targets are equal when their names are.
type Target string

func (t Target) String() string { return string(t) }

// Exists reports whether a file named by the target exists.
func (t Target) Exists() bool {
	_, err := os.Stat(string(t))
	return err == nil
}

// LastModified returns the modification time of the file named by the
// target, or the zero time when it does not exist.
func (t Target) LastModified() time.Time {
	fi, err := os.Stat(string(t))
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// RuleType distinguishes the rule grammar productions.
type RuleType int

const (
	RuleTarget RuleType = iota
	RuleInference
	RuleStatic
	RuleSpecial
)

// SpecialKind identifies a dotted special target.
type SpecialKind int

const (
	SpecialNone SpecialKind = iota
	SpecialIgnore
	SpecialPosix
	SpecialPrecious
	SpecialSilent
	SpecialSuffixes
	SpecialDefault
	SpecialSccsGet
	SpecialPhony
	SpecialIntermediate
	SpecialSecondary
	SpecialDeleteOnError
	SpecialLowResolutionTime
	SpecialExportAllVariables
	SpecialNotParallel
	SpecialOneShell
)

// Rule is a composite directive whose children are its commands, comments
// and blank lines. One rule node covers every target written on its line.
type Rule struct {
	Type          RuleType
	Targets       []Target
	DoubleColon   bool
	Prerequisites []string
	OrderOnly     []string // After |.

	// Static pattern rules only.
	TargetPattern  string
	PrereqPatterns []string

	Special SpecialKind
}

// Target returns the first target of the rule.
func (r *Rule) Target() Target {
	if len(r.Targets) == 0 {
		return ""
	}
	return r.Targets[0]
}

// HasTarget reports whether t is one of the rule's targets.
func (r *Rule) HasTarget(t Target) bool {
	for _, target := range r.Targets {
		if target == t {
			return true
		}
	}
	return false
}

// AssignOp is the assignment operator of a variable definition.
type AssignOp int

const (
	OpRecursive   AssignOp = iota // =
	OpSimple                      // :=
	OpSimplePosix                 // ::=
	OpConditional                 // ?=
	OpAppend                      // +=
	OpShell                       // !=
)

var opText = [...]string{
	OpRecursive:   "=",
	OpSimple:      ":=",
	OpSimplePosix: "::=",
	OpConditional: "?=",
	OpAppend:      "+=",
	OpShell:       "!=",
}

func (o AssignOp) String() string {
	if o < 0 || int(o) >= len(opText) {
		return "="
	}
	return opText[o]
}

// Origin records where a macro definition came from.
type Origin int

const (
	FromMakefile Origin = iota
	FromDefault
	FromEnvironment
	FromCommandLine
)

func (o Origin) String() string {
	switch o {
	case FromDefault:
		return "default"
	case FromEnvironment:
		return "environment"
	case FromCommandLine:
		return "command line"
	default:
		return "makefile"
	}
}

// MacroDef is a variable definition.
type MacroDef struct {
	Name  string
	Value string
	Op    AssignOp

	Define   bool
	Override bool
	Export   bool
	Target   string // Non-empty for target-specific variables.

	Origin Origin
}

// TargetSpecific reports whether the definition applies to one target only.
func (m *MacroDef) TargetSpecific() bool { return m.Target != "" }

// CondType distinguishes the conditional keywords.
type CondType int

const (
	CondIf CondType = iota // Automake "if COND" / "@if COND".
	CondIfdef
	CondIfndef
	CondIfeq
	CondIfneq
	CondElse
)

// Conditional is a composite directive holding the lines of one branch.
type Conditional struct {
	Type      CondType
	Keyword   string
	Condition string

	// Automake conditionals remember the rules that were open when the
	// block began; the matching else/endif reattaches to them.
	Automake bool
	Rules    []ID
}

// Command is one recipe line.
type Command struct {
	Text        string
	Silent      bool // @
	IgnoreError bool // -
	AlwaysRun   bool // +

	// ConfigPrefix is the @NAME@ that hides an Automake recipe.
	ConfigPrefix string
}

// Comment holds the text after '#'.
type Comment struct {
	Text string
}

// EmptyLine is a blank line.
type EmptyLine struct{}

// Terminal marks endif or endef.
type Terminal struct {
	Keyword string
}

// Include names makefiles to read.
type Include struct {
	Keyword   string
	Filenames []string
}

// Optional reports whether missing files are tolerated by make itself.
func (i *Include) Optional() bool {
	return i.Keyword == "-include" || i.Keyword == "sinclude"
}

// VPath is a vpath search-path directive.
type VPath struct {
	Pattern     string
	Directories []string
}

// UnExport is an unexport directive.
type UnExport struct {
	Names string
}

// ConfigMacro is an @NAME@ placeholder substituted by configure.
type ConfigMacro struct {
	Name string // Including the surrounding '@'.
}

// BadDirective preserves a line that matched nothing.
type BadDirective struct {
	Line string
}

func (*Rule) Kind() Kind         { return KindRule }
func (*MacroDef) Kind() Kind     { return KindMacro }
func (*Conditional) Kind() Kind  { return KindConditional }
func (*Command) Kind() Kind      { return KindCommand }
func (*Comment) Kind() Kind      { return KindComment }
func (*EmptyLine) Kind() Kind    { return KindEmptyLine }
func (*Terminal) Kind() Kind     { return KindTerminal }
func (*Include) Kind() Kind      { return KindInclude }
func (*VPath) Kind() Kind        { return KindVPath }
func (*UnExport) Kind() Kind     { return KindUnExport }
func (*ConfigMacro) Kind() Kind  { return KindConfigMacro }
func (*BadDirective) Kind() Kind { return KindBad }

func (*Rule) directive()         {}
func (*MacroDef) directive()     {}
func (*Conditional) directive()  {}
func (*Command) directive()      {}
func (*Comment) directive()      {}
func (*EmptyLine) directive()    {}
func (*Terminal) directive()     {}
func (*Include) directive()      {}
func (*VPath) directive()        {}
func (*UnExport) directive()     {}
func (*ConfigMacro) directive()  {}
func (*BadDirective) directive() {}
