package provider

import (
	"github.com/gxo-labs/weft/internal/config"
)

// DenyList holds the ordered set of instrumentation-scope names for which the
// coordinator hands out only noop tracer handles. It is built once at startup
// and read-only afterwards.
type DenyList struct {
	rules []config.DenyRule
}

// NewDenyList copies the configured rules into an immutable deny-list.
func NewDenyList(rules []config.DenyRule) *DenyList {
	return &DenyList{rules: append([]config.DenyRule(nil), rules...)}
}

// Denies reports whether a get-tracer request for the given scope name must be
// answered with a noop handle. Matching is by exact name only.
// TODO: apply DenyRule.Constraint against the scope version with a semver
// range matcher; constraints are validated at config load but not matched yet.
func (d *DenyList) Denies(name string) bool {
	for _, r := range d.rules {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Len returns the number of configured rules.
func (d *DenyList) Len() int { return len(d.rules) }
