package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labRecipe matches the shipped defaults: 13 uL of mix per 15 uL reaction.
func labRecipe() *Recipe {
	return &Recipe{
		TotalVolumeUl: 13.0,
		MasterMix2xUl: 7.5,
		ProbeUl:       0.3,
		PrimerUl:      0.3,
	}
}

func TestComputeMixTaqMan(t *testing.T) {
	t.Parallel()

	genes := []GeneSpec{{Name: "Il6", Chemistry: ChemistryTaqMan}}
	placed := map[string]int{"Il6": 100}

	mix, err := ComputeMix(genes, placed, 10, labRecipe())
	require.NoError(t, err)
	require.Len(t, mix, 1)

	m := mix[0]
	assert.Equal(t, 100, m.PlacedReactions)
	assert.InDelta(t, 110.0, m.MixFactor, 1e-9)
	assert.InDelta(t, 110.0, m.MixEquivRxn, 1e-9)
	assert.InDelta(t, 825.0, m.MasterMix2xUl, 1e-9)
	assert.InDelta(t, 33.0, m.ProbeUl, 1e-9)
	assert.InDelta(t, 33.0, m.FwdPrimerUl, 1e-9)
	assert.Equal(t, m.FwdPrimerUl, m.RevPrimerUl)
	// 110*13 - (825 + 33 + 33 + 33)
	assert.InDelta(t, 506.0, m.WaterUl, 1e-9)
}

func TestComputeMixSYBRHasNoProbe(t *testing.T) {
	t.Parallel()

	placed := map[string]int{"Gapdh": 100}

	taq, err := ComputeMix([]GeneSpec{{Name: "Gapdh", Chemistry: ChemistryTaqMan}}, placed, 10, labRecipe())
	require.NoError(t, err)
	sybr, err := ComputeMix([]GeneSpec{{Name: "Gapdh", Chemistry: ChemistrySYBR}}, placed, 10, labRecipe())
	require.NoError(t, err)

	assert.Zero(t, sybr[0].ProbeUl)
	assert.Positive(t, taq[0].ProbeUl)
	// Water absorbs the skipped probe volume.
	assert.Greater(t, sybr[0].WaterUl, taq[0].WaterUl)
	assert.InDelta(t, taq[0].WaterUl+taq[0].ProbeUl, sybr[0].WaterUl, 1e-9)
}

func TestComputeMixZeroOverage(t *testing.T) {
	t.Parallel()

	mix, err := ComputeMix(
		[]GeneSpec{{Name: "Tnf", Chemistry: ChemistrySYBR}},
		map[string]int{"Tnf": 20}, 0, labRecipe())
	require.NoError(t, err)

	assert.InDelta(t, 20.0, mix[0].MixFactor, 1e-9)
	assert.InDelta(t, 150.0, mix[0].MasterMix2xUl, 1e-9)
}

func TestComputeMixMisconfiguredRecipe(t *testing.T) {
	t.Parallel()

	// Reagents exceed the total mix volume: water would be negative.
	bad := &Recipe{
		TotalVolumeUl: 8.0,
		MasterMix2xUl: 7.5,
		ProbeUl:       0.3,
		PrimerUl:      0.3,
	}

	_, err := ComputeMix(
		[]GeneSpec{{Name: "Il6", Chemistry: ChemistryTaqMan}},
		map[string]int{"Il6": 10}, 0, bad)
	require.ErrorIs(t, err, ErrRecipeInvalid)
}

func TestComputeMixZeroWaterIsValid(t *testing.T) {
	t.Parallel()

	// Reagents exactly fill the mix: water clamps to zero without error.
	exact := &Recipe{
		TotalVolumeUl: 7.5 + 0.3 + 0.3 + 0.3,
		MasterMix2xUl: 7.5,
		ProbeUl:       0.3,
		PrimerUl:      0.3,
	}

	mix, err := ComputeMix(
		[]GeneSpec{{Name: "Il6", Chemistry: ChemistryTaqMan}},
		map[string]int{"Il6": 10}, 10, exact)
	require.NoError(t, err)
	assert.Zero(t, mix[0].WaterUl)
}

func TestComputeMixPerGeneIndependence(t *testing.T) {
	t.Parallel()

	genes := []GeneSpec{
		{Name: "Gapdh", Chemistry: ChemistrySYBR},
		{Name: "Il6", Chemistry: ChemistryTaqMan},
	}
	placed := map[string]int{"Gapdh": 50, "Il6": 80}

	mix, err := ComputeMix(genes, placed, 10, labRecipe())
	require.NoError(t, err)
	require.Len(t, mix, 2)

	assert.Equal(t, "Gapdh", mix[0].Gene)
	assert.Equal(t, 50, mix[0].PlacedReactions)
	assert.Equal(t, "Il6", mix[1].Gene)
	assert.Equal(t, 80, mix[1].PlacedReactions)
}
