package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse reads a whole makefile from r and returns its directive tree.
// Only read failures are reported as errors; lines that match no grammar
// production become BadDirective nodes.
func Parse(filename string, r io.Reader) (*Tree, error) {
	p := newState(filename)
	if err := p.parse(NewReader(r)); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return p.tree, nil
}

// ParseString parses src, which cannot fail to read.
func ParseString(src string) *Tree {
	p := newState("")
	_ = p.parse(NewReader(strings.NewReader(src)))
	return p.tree
}

// state tracks parser state across logical lines.
type state struct {
	tree       *Tree
	conditions []ID // Open conditionals, innermost last.
	defines    []ID // Open define captures, innermost last.
	rules      []ID // Rules that receive the next command, comment or blank.
	start, end int  // Line range of the current logical line.
}

func newState(filename string) *state {
	return &state{tree: NewTree(filename)}
}

func (p *state) parse(r *Reader) error {
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		p.start = p.end + 1
		p.end = r.LineNumber()
		p.parseLine(line)
	}
	p.finish()
	return nil
}

// finish records blocks left open at end of input.
func (p *state) finish() {
	p.tree.Unclosed = append(p.tree.Unclosed, p.conditions...)
	p.tree.Unclosed = append(p.tree.Unclosed, p.defines...)
	if p.end > p.tree.EndLine {
		p.tree.EndLine = p.end
	}
}

func (p *state) parseLine(line string) {
	// 1. define/endef capture.
	switch {
	case isEndef(line):
		if n := len(p.defines); n > 0 {
			p.tree.SetEndLine(p.defines[n-1], p.end)
			p.defines = p.defines[:n-1]
		}
		p.add(&Terminal{Keyword: "endef"})
		return
	case isDefine(line), isOverrideDefine(line):
		id := p.add(parseVariableDef(line))
		p.defines = append(p.defines, id)
		return
	}

	if n := len(p.defines); n > 0 {
		node := p.tree.Node(p.defines[n-1])
		def := node.Directive.(*MacroDef)
		// The define node keeps its header range until endef.
		if p.start > node.EndLine+1 {
			def.Value += "\n"
		}
		def.Value += line
		return
	}

	// 2. Commands first, since '#' cannot be stripped from them.
	if IsCommand(line) || isAutomakeCommand(line) {
		cmd := parseCommand(line)
		if len(p.rules) > 0 {
			p.addToRules(cmd)
			return
		}
		if len(p.conditions) > 0 {
			p.add(cmd)
			return
		}
		// No rule or conditional owns it; let the other productions try.
	}

	// 3. Comments. What precedes the '#' may still be a directive.
	if pound := IndexOfComment(line); pound >= 0 {
		p.addToRulesOrScope(&Comment{Text: line[pound+1:]})
		line = line[:pound]
		if strings.TrimSpace(line) == "" {
			return
		}
	}

	// 4. Blank lines.
	if strings.TrimSpace(line) == "" {
		p.addToRulesOrScope(&EmptyLine{})
		return
	}

	// 5. Automake if/else/endif. The rules open at "if" are restored by
	// the matching else and endif, because Automake wraps partial recipes.
	if isIf(line) {
		keyword, cond := splitKeyword(line)
		id := p.addToRulesOrScope(&Conditional{
			Type:      CondIf,
			Keyword:   keyword,
			Condition: cond,
			Automake:  true,
			Rules:     append([]ID(nil), p.rules...),
		})
		p.conditions = append(p.conditions, id)
		p.rules = nil
		return
	}

	if isElse(line) {
		keyword, cond := splitKeyword(line)
		els := &Conditional{Type: CondElse, Keyword: keyword, Condition: cond}
		popped := p.popCondition()
		if popped != None {
			p.tree.SetEndLine(popped, p.end-1)
		}
		p.rules = nil
		if c := p.conditional(popped); c != nil && c.Automake {
			els.Automake = true
			els.Rules = c.Rules
			p.rules = c.Rules
		}
		id := p.addToRulesOrScope(els)
		p.conditions = append(p.conditions, id)
		p.rules = nil
		return
	}

	if isEndif(line) {
		keyword, _ := splitKeyword(line)
		popped := p.popCondition()
		if popped != None {
			p.tree.SetEndLine(popped, p.end)
		}
		p.rules = nil
		if c := p.conditional(popped); c != nil && c.Automake {
			p.rules = c.Rules
		}
		p.addToRulesOrScope(&Terminal{Keyword: keyword})
		return
	}

	// 6. Any other non-blank line that does not begin with a tab starts a
	// new entry.
	p.rules = nil

	if cond := parseConditional(line); cond != nil {
		id := p.add(cond)
		p.conditions = append(p.conditions, id)
		return
	}

	if d := parseGNUDirective(line); d != nil {
		p.add(d)
		return
	}

	if kind, ok := specialTarget(line); ok {
		p.rules = []ID{p.add(parseSpecialRule(line, kind))}
		return
	}

	if isInferenceRule(line) {
		p.rules = []ID{p.add(parseInferenceRule(line))}
		return
	}

	if isVariableDefinition(line) {
		p.add(parseVariableDef(line))
		return
	}

	if isStaticTargetRule(line) {
		p.rules = []ID{p.add(parseStaticTargetRule(line))}
		return
	}

	if isTargetRule(line) {
		rule, cmd := parseTargetRule(line)
		id := p.add(rule)
		if cmd != nil {
			p.tree.Append(id, cmd, p.start, p.end)
		}
		p.rules = []ID{id}
		return
	}

	if isConfigMacro(line) {
		trimmed := strings.TrimSpace(line)
		p.add(&ConfigMacro{Name: trimmed[:configMacroEnd(trimmed)+1]})
		return
	}

	p.add(&BadDirective{Line: line})
}

// scope returns the innermost open conditional, or None.
func (p *state) scope() ID {
	if n := len(p.conditions); n > 0 {
		return p.conditions[n-1]
	}
	return None
}

// add appends d to the current scope.
func (p *state) add(d Directive) ID {
	return p.tree.Append(p.scope(), d, p.start, p.end)
}

// addToRules appends d to every active rule and returns the last id.
func (p *state) addToRules(d Directive) ID {
	id := None
	for i, rule := range p.rules {
		if i > 0 {
			d = clone(d)
		}
		id = p.tree.Append(rule, d, p.start, p.end)
	}
	return id
}

func (p *state) addToRulesOrScope(d Directive) ID {
	if len(p.rules) > 0 {
		return p.addToRules(d)
	}
	return p.add(d)
}

func (p *state) popCondition() ID {
	n := len(p.conditions)
	if n == 0 {
		return None
	}
	id := p.conditions[n-1]
	p.conditions = p.conditions[:n-1]
	return id
}

func (p *state) conditional(id ID) *Conditional {
	if id == None {
		return nil
	}
	c, _ := p.tree.Node(id).Directive.(*Conditional)
	return c
}

// clone copies leaf payloads so that no node is shared between parents.
func clone(d Directive) Directive {
	switch v := d.(type) {
	case *Command:
		c := *v
		return &c
	case *Comment:
		c := *v
		return &c
	case *Conditional:
		c := *v
		c.Rules = append([]ID(nil), v.Rules...)
		return &c
	case *Terminal:
		c := *v
		return &c
	default:
		return d
	}
}

// parseCommand splits the prefix flags off a recipe line.
func parseCommand(line string) *Command {
	cmd := &Command{}
	if end := configMacroEnd(line); end > 0 && isAutomakeCommand(line) {
		cmd.ConfigPrefix = line[:end+1]
		line = line[end+1:]
	}
	line = strings.TrimSpace(line)
	for line != "" {
		switch line[0] {
		case '@':
			cmd.Silent = true
		case '-':
			cmd.IgnoreError = true
		case '+':
			cmd.AlwaysRun = true
		default:
			cmd.Text = line
			return cmd
		}
		line = strings.TrimLeft(line[1:], " \t")
	}
	return cmd
}

// parseConditional handles ifdef, ifndef, ifeq and ifneq.
func parseConditional(line string) *Conditional {
	keyword, cond := splitKeyword(line)
	var typ CondType
	switch {
	case isIfdef(line):
		typ = CondIfdef
	case isIfndef(line):
		typ = CondIfndef
	case isIfeq(line):
		typ = CondIfeq
	case isIfneq(line):
		typ = CondIfneq
	default:
		return nil
	}
	return &Conditional{Type: typ, Keyword: keyword, Condition: cond}
}

// parseGNUDirective handles unexport, vpath and the include family.
func parseGNUDirective(line string) Directive {
	keyword, rest := splitKeyword(line)
	switch {
	case isUnExport(line):
		return &UnExport{Names: rest}
	case isVPath(line):
		// vpath [PATTERN [DIRECTORIES]]; directories split on blanks or ':'.
		fields := Fields(rest)
		v := &VPath{}
		if len(fields) > 0 {
			v.Pattern = fields[0]
		}
		for _, f := range fields[min(1, len(fields)):] {
			for _, dir := range strings.Split(f, ":") {
				if dir != "" {
					v.Directories = append(v.Directories, dir)
				}
			}
		}
		return v
	case isInclude(line):
		return &Include{Keyword: keyword, Filenames: Fields(rest)}
	}
	return nil
}

func parseSpecialRule(line string, kind SpecialKind) *Rule {
	line = strings.TrimSpace(line)
	colon := IndexOf(line, ':')
	rule := &Rule{
		Type:    RuleSpecial,
		Special: kind,
		Targets: []Target{Target(strings.TrimSpace(line[:colon]))},
	}
	switch kind {
	case SpecialPosix, SpecialDefault, SpecialSccsGet:
		// These take no prerequisites.
	default:
		rule.Prerequisites = Fields(beforeCommand(line[colon+1:]))
	}
	return rule
}

func parseInferenceRule(line string) *Rule {
	line = strings.TrimSpace(line)
	tgt := line
	if colon := IndexOf(line, ':'); colon >= 0 {
		tgt = strings.TrimSpace(line[:colon])
	}
	return &Rule{Type: RuleInference, Targets: []Target{Target(tgt)}}
}

// parseVariableDef parses every form of variable definition:
//
//	[target:] [override] [define] [export] NAME [op] [value]
func parseVariableDef(line string) *MacroDef {
	line = strings.TrimSpace(line)
	def := &MacroDef{Op: OpRecursive, Origin: FromMakefile}

	if isTargetVariable(line) {
		colon := IndexOf(line, ':')
		def.Target = strings.TrimSpace(line[:colon])
		line = strings.TrimSpace(line[colon+1:])
	}
	if isOverride(line) {
		def.Override = true
		_, line = splitKeyword(line)
	}
	if isDefine(line) {
		def.Define = true
		_, line = splitKeyword(line)
	}
	if isExport(line) {
		def.Export = true
		_, line = splitKeyword(line)
	}

	eq := IndexOf(line, '=')
	if eq < 0 {
		def.Name = line
		return def
	}
	sep := eq
	if eq > 0 {
		switch line[eq-1] {
		case ':':
			def.Op = OpSimple
			sep--
			if sep > 0 && line[sep-1] == ':' {
				def.Op = OpSimplePosix
				sep--
			}
		case '+':
			def.Op = OpAppend
			sep--
		case '?':
			def.Op = OpConditional
			sep--
		case '!':
			def.Op = OpShell
			sep--
		}
	}
	def.Name = strings.TrimSpace(line[:sep])
	def.Value = strings.TrimSpace(line[eq+1:])
	return def
}

// parseStaticTargetRule parses "targets: target-pattern: prereq-patterns".
func parseStaticTargetRule(line string) *Rule {
	line = strings.TrimSpace(beforeCommand(line))
	rule := &Rule{Type: RuleStatic}
	colon := IndexOf(line, ':')
	for _, t := range Fields(line[:colon]) {
		rule.Targets = append(rule.Targets, Target(t))
	}
	rest := line[colon+1:]
	if second := IndexOf(rest, ':'); second >= 0 {
		rule.TargetPattern = strings.TrimSpace(rest[:second])
		rule.PrereqPatterns = Fields(rest[second+1:])
	}
	return rule
}

// parseTargetRule parses
//
//	targets (':' | '::') [prereqs] ['|' order-only] [';' command]
//
// and returns the inline command, if any, separately.
func parseTargetRule(line string) (*Rule, *Command) {
	rule := &Rule{Type: RuleTarget}
	colon := IndexOf(line, ':')
	for _, t := range Fields(line[:colon]) {
		rule.Targets = append(rule.Targets, Target(t))
	}

	req := line[colon+1:]
	if strings.HasPrefix(req, ":") {
		rule.DoubleColon = true
		req = req[1:]
	}

	var cmd *Command
	if semi := IndexOf(req, ';'); semi >= 0 {
		cmd = parseCommand(req[semi+1:])
		req = req[:semi]
	}

	normal, order := req, ""
	if pipe := IndexOf(req, '|'); pipe >= 0 {
		normal, order = req[:pipe], req[pipe+1:]
	}
	rule.Prerequisites = Fields(normal)
	rule.OrderOnly = Fields(order)
	return rule, cmd
}
