package config

import (
	"fmt"
	"strings"

	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	"golang.org/x/mod/semver"
)

// ValidateConfigStructure performs a logical validation of the parsed Config
// struct. It checks cross-field consistency and other rules that cannot be
// fully expressed in JSON Schema alone. It returns a slice of all validation
// errors found.
func ValidateConfigStructure(c *Config) []error {
	var errs []error

	if c.IDGenerator != "" && c.IDGenerator != IDGeneratorRandom {
		errs = append(errs, werrors.NewValidationError(fmt.Sprintf("unknown id_generator '%s' (supported: %s)", c.IDGenerator, IDGeneratorRandom), nil))
	}

	if c.Sampler != nil {
		errs = append(errs, validateSamplerSpec(c.Sampler, false)...)
	}

	for i, spec := range c.Processors {
		if strings.TrimSpace(spec.Type) == "" {
			errs = append(errs, werrors.NewValidationError(fmt.Sprintf("processors[%d] has empty 'type'", i), nil))
		}
	}

	for i, rule := range c.DenyList {
		if strings.TrimSpace(rule.Name) == "" {
			errs = append(errs, werrors.NewValidationError(fmt.Sprintf("deny_list[%d] has empty 'name'", i), nil))
			continue
		}
		if rule.Constraint != "" && !validConstraintSyntax(rule.Constraint) {
			errs = append(errs, werrors.NewValidationError(fmt.Sprintf("deny_list[%d] ('%s') has invalid version constraint '%s'", i, rule.Name, rule.Constraint), nil))
		}
	}

	return errs
}

// validateSamplerSpec checks one sampler specification, recursing into the
// root spec of a parent_based sampler. nested guards against parent_based
// appearing inside another parent_based root.
func validateSamplerSpec(s *SamplerSpec, nested bool) []error {
	var errs []error

	switch s.Name {
	case SamplerAlwaysOn, SamplerAlwaysOff:
		if s.Root != nil {
			errs = append(errs, werrors.NewValidationError(fmt.Sprintf("sampler '%s' does not accept a 'root' block", s.Name), nil))
		}
	case SamplerTraceIDRatio:
		if s.Ratio < 0 || s.Ratio > 1 {
			errs = append(errs, werrors.NewValidationError(fmt.Sprintf("sampler '%s' ratio must be within [0, 1], got %v", s.Name, s.Ratio), nil))
		}
		if s.Root != nil {
			errs = append(errs, werrors.NewValidationError(fmt.Sprintf("sampler '%s' does not accept a 'root' block", s.Name), nil))
		}
	case SamplerParentBased:
		if nested {
			errs = append(errs, werrors.NewValidationError("sampler 'parent_based' cannot be used as the root of another 'parent_based' sampler", nil))
			break
		}
		if s.Root != nil {
			errs = append(errs, validateSamplerSpec(s.Root, true)...)
		}
	default:
		errs = append(errs, werrors.NewValidationError(fmt.Sprintf("unknown sampler '%s'", s.Name), nil))
	}

	return errs
}

// validConstraintSyntax reports whether a deny-list version constraint is
// syntactically a valid semantic version (with or without the leading 'v').
// Constraint matching itself is not applied anywhere yet; only the syntax is
// gated so configurations fail early instead of carrying dead rules.
func validConstraintSyntax(constraint string) bool {
	v := strings.TrimSpace(constraint)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.IsValid(v)
}
