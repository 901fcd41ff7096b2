// validate.go: configuration validation run after loading settings.
package conf

import (
	"github.com/platewell/qpcr-go/internal/errors"
)

// Validate checks settings for values the planner cannot work with. Recipe
// volumes are checked for both chemistries so a misconfigured recipe fails at
// startup instead of producing negative water volumes at plan time.
func (s *Settings) Validate() error {
	if err := s.validatePlanner(); err != nil {
		return err
	}
	return s.validateRecipe()
}

func (s *Settings) validatePlanner() error {
	p := &s.Planner

	if p.Replicates < 1 {
		return errors.Newf("planner.replicates must be at least 1, got %d", p.Replicates).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if p.Replicates > 24 {
		return errors.Newf("planner.replicates must not exceed 24 columns, got %d", p.Replicates).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if p.OveragePct < 0 {
		return errors.Newf("planner.overagepct must not be negative, got %g", p.OveragePct).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if p.Samples < 0 || p.Standards < 0 || p.Positives < 0 || p.Blanks < 0 {
		return errors.Newf("planner counts must not be negative").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	switch p.OverridePolicy {
	case OverridePolicyOverrideWins, OverridePolicyOrderWins:
	default:
		return errors.Newf("planner.overridepolicy must be %q or %q, got %q",
			OverridePolicyOverrideWins, OverridePolicyOrderWins, p.OverridePolicy).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}

func (s *Settings) validateRecipe() error {
	r := &s.Recipe

	if r.TotalVolumeUl <= 0 {
		return errors.Newf("recipe.totalvolumeul must be positive, got %g", r.TotalVolumeUl).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if r.MasterMix2xUl < 0 || r.ProbeUl < 0 || r.PrimerUl < 0 {
		return errors.Newf("recipe volumes must not be negative").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	// Water absorbs the remainder of the mix volume. It must be non-negative
	// for the widest reagent set (TaqMan includes the probe).
	taqmanWater := r.TotalVolumeUl - r.MasterMix2xUl - r.ProbeUl - 2*r.PrimerUl
	if taqmanWater < 0 {
		return errors.Newf("recipe reagents exceed total volume: %g uL of reagents in a %g uL mix",
			r.MasterMix2xUl+r.ProbeUl+2*r.PrimerUl, r.TotalVolumeUl).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("taqman_water_ul", taqmanWater).
			Build()
	}

	return nil
}
