// Package lint defines the check interface and runs checks over a parsed
// makefile.
package lint

import (
	"fmt"
	"sort"

	"github.com/donaldgifford/mkparse/internal/config"
	"github.com/donaldgifford/mkparse/internal/makefile"
)

// Severity ranks a finding.
type Severity int

const (
	Warn Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return config.SeverityError
	}
	return config.SeverityWarn
}

// Finding is one defect reported by a check.
type Finding struct {
	File     string
	Line     int
	Severity Severity
	Check    string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s: [%s] %s", f.File, f.Line, f.Severity, f.Check, f.Message)
}

// Check inspects a makefile. Checks run in registered order.
type Check interface {
	// Name returns the config key for this check (e.g., "undefined_macro").
	Name() string

	// Description is a one-sentence summary shown by "check --list".
	Description() string

	// DefaultSeverity applies when the config does not name the check.
	DefaultSeverity() Severity

	// Check returns the defects found in m. File, Check and Severity may be
	// left empty; Run fills them in.
	Check(m *makefile.Makefile) []Finding
}

// Run applies checks to m and returns the findings ordered by line, those
// in m's own file first. Checks set to "off" in cfg are skipped.
func Run(m *makefile.Makefile, cfg *config.LintConfig, checks []Check) []Finding {
	var findings []Finding
	for _, c := range checks {
		sev, enabled := severity(c, cfg)
		if !enabled {
			continue
		}
		for _, f := range c.Check(m) {
			if f.File == "" {
				f.File = m.URI()
			}
			f.Check = c.Name()
			f.Severity = sev
			findings = append(findings, f)
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			if a.File == m.URI() || b.File == m.URI() {
				return a.File == m.URI()
			}
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return findings
}

func severity(c Check, cfg *config.LintConfig) (Severity, bool) {
	if cfg == nil {
		return c.DefaultSeverity(), true
	}
	switch cfg.Rules[c.Name()] {
	case config.SeverityOff:
		return 0, false
	case config.SeverityWarn:
		return Warn, true
	case config.SeverityError:
		return Error, true
	default:
		return c.DefaultSeverity(), true
	}
}

// HasErrors reports whether any finding has Error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == Error {
			return true
		}
	}
	return false
}
