package rules

import (
	"github.com/donaldgifford/mkparse/internal/rules/check"
)

func init() {
	// Structural checks first: they only read the tree.
	RegisterCheck(&check.BadDirective{})
	RegisterCheck(&check.UnclosedBlock{})
	RegisterCheck(&check.StrayTerminal{})

	// Checks that resolve includes and macros.
	RegisterCheck(&check.MissingInclude{})
	RegisterCheck(&check.IncludeCycle{})
	RegisterCheck(&check.UndefinedMacro{})
}
