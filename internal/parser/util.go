package parser

import "strings"

// IsSpace reports whether c is a blank character for Makefile purposes.
func IsSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v'
}

// IsEscapedLine reports whether line ends with an odd number of
// backslashes, meaning the newline that follows it is escaped.
func IsEscapedLine(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// IsCommand reports whether line is a recipe line.
func IsCommand(line string) bool {
	return strings.HasPrefix(line, "\t")
}

// IndexOf returns the index of the first c in line that is not nested
// inside a $(...) or ${...} reference, or -1.
func IndexOf(line string, c byte) int {
	return IndexAny(line, string(c))
}

// IndexAny is IndexOf for a set of delimiter characters.
func IndexAny(line, chars string) int {
	depth := 0
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '(' || ch == '{':
			if depth > 0 || (i > 0 && line[i-1] == '$') {
				depth++
				continue
			}
		case ch == ')' || ch == '}':
			if depth > 0 {
				depth--
				continue
			}
		}
		if depth == 0 && strings.IndexByte(chars, ch) >= 0 {
			return i
		}
	}
	return -1
}

// IndexOfComment returns the index of the '#' that starts a comment, or
// -1. A '#' that is escaped, quoted, or inside a macro reference does not
// count.
func IndexOfComment(line string) int {
	var (
		escaped bool
		quote   byte
		depth   int
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			escaped = true
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case (ch == '(' || ch == '{') && (depth > 0 || (i > 0 && line[i-1] == '$')):
			depth++
		case (ch == ')' || ch == '}') && depth > 0:
			depth--
		case ch == '#' && depth == 0:
			return i
		}
	}
	return -1
}

// Fields splits s on blanks like strings.Fields, keeping macro references
// such as $(call f, a b) in one field.
func Fields(s string) []string {
	var (
		out   []string
		depth int
		start = -1
	)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '(' || ch == '{':
			if depth > 0 || (i > 0 && s[i-1] == '$') {
				depth++
			}
		case ch == ')' || ch == '}':
			if depth > 0 {
				depth--
			}
		case IsSpace(ch) && depth == 0:
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// splitKeyword separates the first blank-delimited word of a trimmed line
// from the rest of it.
func splitKeyword(line string) (keyword, rest string) {
	line = strings.TrimSpace(line)
	for i := 0; i < len(line); i++ {
		if IsSpace(line[i]) {
			return line[:i], strings.TrimSpace(line[i:])
		}
	}
	return line, ""
}

// hasKeyword reports whether the first word of line is one of keywords.
func hasKeyword(line string, keywords ...string) bool {
	word, _ := splitKeyword(line)
	for _, k := range keywords {
		if word == k {
			return true
		}
	}
	return false
}

func isEndef(line string) bool  { return hasKeyword(line, "endef") }
func isDefine(line string) bool { return hasKeyword(line, "define") }

func isOverrideDefine(line string) bool {
	word, rest := splitKeyword(line)
	return word == "override" && isDefine(rest)
}

func isIf(line string) bool     { return hasKeyword(line, "if", "@if") }
func isElse(line string) bool   { return hasKeyword(line, "else", "@else") }
func isEndif(line string) bool  { return hasKeyword(line, "endif", "@endif") }
func isIfdef(line string) bool  { return hasKeyword(line, "ifdef") }
func isIfndef(line string) bool { return hasKeyword(line, "ifndef") }
func isIfeq(line string) bool   { return hasKeyword(line, "ifeq") }
func isIfneq(line string) bool  { return hasKeyword(line, "ifneq") }

func isUnExport(line string) bool { return hasKeyword(line, "unexport") }
func isVPath(line string) bool    { return hasKeyword(line, "vpath") }
func isInclude(line string) bool  { return hasKeyword(line, "include", "-include", "sinclude") }
func isOverride(line string) bool { return hasKeyword(line, "override") }
func isExport(line string) bool   { return hasKeyword(line, "export") }

// isConfigName reports whether c may appear in an autoconf @NAME@.
func isConfigName(c byte) bool {
	return c == '_' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// configMacroEnd returns the index of the closing '@' of a leading
// @NAME@ placeholder, or -1.
func configMacroEnd(line string) int {
	if len(line) < 3 || line[0] != '@' {
		return -1
	}
	i := 1
	for i < len(line) && isConfigName(line[i]) {
		i++
	}
	if i > 1 && i < len(line) && line[i] == '@' {
		return i
	}
	return -1
}

// isConfigMacro reports whether line starts with an @NAME@ placeholder.
func isConfigMacro(line string) bool {
	return configMacroEnd(line) > 0
}

// isAutomakeCommand reports whether line is a recipe hidden behind an
// @NAME@ substitution, as in "@am__fastdepCC_TRUE@\t$(COMPILE) ...".
func isAutomakeCommand(line string) bool {
	end := configMacroEnd(line)
	return end > 0 && end+1 < len(line) && line[end+1] == '\t'
}

// isTargetVariable reports whether line has the "target: VAR = value" shape.
// An '=' in an inline ";command" does not count, nor does one that comes
// before the target colon, as in "URL = http://host/?a=b".
func isTargetVariable(line string) bool {
	line = strings.TrimSpace(beforeCommand(line))
	colon := IndexOf(line, ':')
	if colon < 1 {
		return false
	}
	if eq := IndexOf(line, '='); eq < colon {
		return false
	}
	// The colon of ":=" or "::=".
	op := colon + 1
	if op < len(line) && line[op] == ':' {
		op++
	}
	if op < len(line) && line[op] == '=' {
		return false
	}
	rest := strings.TrimSpace(line[colon+1:])
	return IndexOf(rest, '=') > 1
}

// isMacroDefinition reports whether line is a plain NAME op value assignment.
func isMacroDefinition(line string) bool {
	line = strings.TrimSpace(line)
	eq := IndexOf(line, '=')
	if eq < 1 {
		return false
	}
	name := strings.TrimRight(line[:eq], "+?!:")
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if IsSpace(name[i]) || name[i] == ':' {
			return false
		}
	}
	return true
}

func isVariableDefinition(line string) bool {
	return isOverrideDefine(line) || isTargetVariable(line) || isDefine(line) ||
		isOverride(line) || isExport(line) || isMacroDefinition(line)
}

// beforeCommand cuts an inline ";command" off a rule line.
func beforeCommand(line string) string {
	if semi := IndexOf(line, ';'); semi >= 0 {
		return line[:semi]
	}
	return line
}

// isInferenceRule reports whether line is a suffix rule such as ".c.o:".
func isInferenceRule(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ".") {
		return false
	}
	colon := IndexOf(line, ':')
	if colon <= 1 {
		return false
	}
	if len(Fields(line[:colon])) != 1 {
		return false
	}
	return strings.TrimSpace(line[colon+1:]) == ""
}

// isStaticTargetRule reports whether line is "targets: pattern: prereqs".
func isStaticTargetRule(line string) bool {
	line = strings.TrimSpace(beforeCommand(line))
	colon := IndexOf(line, ':')
	if colon < 1 {
		return false
	}
	rest := line[colon+1:]
	second := IndexOf(rest, ':')
	if second < 1 {
		return false
	}
	return second+1 >= len(rest) || rest[second+1] != '='
}

// isTargetRule reports whether line has a target separator that is not
// part of an assignment operator.
func isTargetRule(line string) bool {
	line = strings.TrimSpace(line)
	colon := IndexOf(line, ':')
	if colon < 1 {
		return false
	}
	colon++
	if colon < len(line) && line[colon] == ':' {
		colon++
	}
	return colon >= len(line) || line[colon] != '='
}

// specialTargets dispatches on the exact target name before the colon.
var specialTargets = map[string]SpecialKind{
	".IGNORE":               SpecialIgnore,
	".POSIX":                SpecialPosix,
	".PRECIOUS":             SpecialPrecious,
	".SILENT":               SpecialSilent,
	".SUFFIXES":             SpecialSuffixes,
	".DEFAULT":              SpecialDefault,
	".SCCS_GET":             SpecialSccsGet,
	".PHONY":                SpecialPhony,
	".INTERMEDIATE":         SpecialIntermediate,
	".SECONDARY":            SpecialSecondary,
	".DELETE_ON_ERROR":      SpecialDeleteOnError,
	".LOW_RESOLUTION_TIME":  SpecialLowResolutionTime,
	".EXPORT_ALL_VARIABLES": SpecialExportAllVariables,
	".NOTPARALLEL":          SpecialNotParallel,
	".ONESHELL":             SpecialOneShell,
}

// specialTarget returns the special kind named by a rule line, if any.
func specialTarget(line string) (SpecialKind, bool) {
	line = strings.TrimSpace(line)
	colon := IndexOf(line, ':')
	if colon < 1 {
		return SpecialNone, false
	}
	// ".PHONY := x" is an assignment, not a rule.
	if colon+1 < len(line) && line[colon+1] == '=' {
		return SpecialNone, false
	}
	kind, ok := specialTargets[strings.TrimSpace(line[:colon])]
	return kind, ok
}
