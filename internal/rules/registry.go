// Package rules manages registration of lint checks.
package rules

import (
	"github.com/donaldgifford/mkparse/internal/lint"
)

var checks []lint.Check

// RegisterCheck adds a check to the registry.
// Checks run in the order they are registered.
func RegisterCheck(c lint.Check) {
	checks = append(checks, c)
}

// Checks returns all registered checks in execution order.
func Checks() []lint.Check {
	return checks
}

// Lookup returns the registered check with the given config key.
func Lookup(name string) (lint.Check, bool) {
	for _, c := range checks {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}
