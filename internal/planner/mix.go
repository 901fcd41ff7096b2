// mix.go: derives per-gene master-mix reagent volumes from placed well counts.
package planner

import (
	"fmt"
	"math"
)

// waterEpsilon absorbs float rounding noise when the recipe leaves exactly zero
// water. Anything more negative is a misconfigured recipe.
const waterEpsilon = 1e-9

// ComputeMix converts each gene's placed reaction count into one mix entry.
// Overage scales volumes only; it never changes well counts. Volumes are
// independent per gene, with no cross-gene reagent sharing.
func ComputeMix(genes []GeneSpec, placed map[string]int, overagePct float64, recipe *Recipe) ([]MixEntry, error) {
	entries := make([]MixEntry, 0, len(genes))

	for i := range genes {
		gene := &genes[i]
		entry, err := mixForGene(gene, placed[gene.Name], overagePct, recipe)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func mixForGene(gene *GeneSpec, placedReactions int, overagePct float64, recipe *Recipe) (MixEntry, error) {
	mixFactor := float64(placedReactions) * (1 + overagePct/100)
	mixEquivRxn := mixFactor

	masterMix := mixEquivRxn * recipe.MasterMix2xUl
	probe := 0.0
	if gene.Chemistry == ChemistryTaqMan {
		probe = mixEquivRxn * recipe.ProbeUl
	}
	fwd := mixEquivRxn * recipe.PrimerUl
	rev := mixEquivRxn * recipe.PrimerUl

	water := mixEquivRxn*recipe.TotalVolumeUl - (masterMix + probe + fwd + rev)
	if water < -waterEpsilon {
		return MixEntry{}, fmt.Errorf("%w: gene %q water volume %.3f uL before clamping",
			ErrRecipeInvalid, gene.Name, water)
	}
	// Exact-fill recipes leave float residue on either side of zero.
	if math.Abs(water) < waterEpsilon {
		water = 0
	}

	return MixEntry{
		Gene:            gene.Name,
		Chemistry:       gene.Chemistry,
		PlacedReactions: placedReactions,
		MixFactor:       mixFactor,
		MixEquivRxn:     mixEquivRxn,
		MasterMix2xUl:   masterMix,
		WaterUl:         water,
		ProbeUl:         probe,
		FwdPrimerUl:     fwd,
		RevPrimerUl:     rev,
	}, nil
}
