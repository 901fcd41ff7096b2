package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRequest builds a request with n synthesized samples and the given genes.
func makeRequest(t *testing.T, n int, controls ControlSpec, genes ...GeneSpec) *Request {
	t.Helper()
	samples, headers, err := SynthesizeSamples(n)
	require.NoError(t, err)
	return &Request{
		Samples:       samples,
		SampleHeaders: headers,
		Genes:         genes,
		Controls:      controls,
	}
}

func TestAllocateSingleGeneRowA(t *testing.T) {
	t.Parallel()

	// 6 samples and 4 standards at 2 replicates: 10 adjacent-pair blocks,
	// 20 wells, all fitting in row A (12 pairs per row).
	req := makeRequest(t, 6,
		ControlSpec{NumStandards: 4, Replicates: 2},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, plates, 1)

	p := &plates[0]
	assert.Equal(t, 1, p.Plate)
	assert.Equal(t, "Gapdh", p.Gene)
	assert.Equal(t, 20, p.UsedCount)
	assert.Equal(t, 364, p.EmptyCount())
	require.Len(t, p.Wells, 20)

	// All wells in row A, columns 1..20, pairs adjacent.
	for i, w := range p.Wells {
		assert.Equal(t, 0, w.Row, "well %d must be in row A", i)
		assert.Equal(t, i+1, w.Column)
	}
	assert.Equal(t, "A1", p.Wells[0].Coordinate())
	assert.Equal(t, "A20", p.Wells[19].Coordinate())

	// Content order: samples then standards.
	assert.Equal(t, OccupantSample, p.Wells[0].Occupant)
	assert.Equal(t, "Sample1", p.Wells[0].Label)
	assert.Equal(t, 1, p.Wells[0].Replicate)
	assert.Equal(t, 2, p.Wells[1].Replicate)
	assert.Equal(t, OccupantStandard, p.Wells[12].Occupant)
	assert.Equal(t, "Std1", p.Wells[12].Label)
	assert.Equal(t, "Std4", p.Wells[19].Label)
}

func TestAllocateReplicateBlocksNeverSplitRows(t *testing.T) {
	t.Parallel()

	// 5-wide blocks: 4 fit per row (columns 1..20), columns 21..24 stay
	// empty and the next block starts at column 1 of the next row.
	req := makeRequest(t, 6,
		ControlSpec{Replicates: 5},
		GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, plates, 1)

	p := &plates[0]
	assert.Equal(t, 30, p.UsedCount)

	byLabel := make(map[string][]Well)
	for _, w := range p.Wells {
		byLabel[w.Label] = append(byLabel[w.Label], w)
	}

	for label, wells := range byLabel {
		require.Len(t, wells, 5, "label %s", label)
		for i := 1; i < len(wells); i++ {
			assert.Equal(t, wells[0].Row, wells[i].Row, "replicate block %s split across rows", label)
			assert.Equal(t, wells[i-1].Column+1, wells[i].Column, "replicate block %s not contiguous", label)
		}
	}

	// Fifth block (Sample5) starts row B column 1.
	assert.Equal(t, "B1", byLabel["Sample5"][0].Coordinate())
	// No well may sit in the skipped tail columns 21..24.
	for _, w := range p.Wells {
		assert.LessOrEqual(t, w.Column, 20)
	}
}

func TestAllocateContentOrder(t *testing.T) {
	t.Parallel()

	req := makeRequest(t, 2,
		ControlSpec{
			NumStandards:  1,
			NumPositives:  1,
			NumBlanks:     1,
			Replicates:    1,
			IncludeRTNeg:  true,
			IncludeRNANeg: true,
		},
		GeneSpec{Name: "Tnf", Chemistry: ChemistrySYBR},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, plates, 1)

	var labels []string
	var occupants []Occupant
	for _, w := range plates[0].Wells {
		labels = append(labels, w.Label)
		occupants = append(occupants, w.Occupant)
	}

	assert.Equal(t, []string{"Sample1", "Sample2", "Std1", "Pos1", "RT-", "RNA-", "Blank"}, labels)
	assert.Equal(t, []Occupant{
		OccupantSample, OccupantSample, OccupantStandard, OccupantPositive,
		OccupantNegative, OccupantNegative, OccupantBlank,
	}, occupants)
}

func TestAllocateOverflowToSecondPlate(t *testing.T) {
	t.Parallel()

	// 200 labels at 2 replicates = 400 wells: plate 1 fully used, the
	// remaining 16 wells continue on plate 2 under the same gene.
	req := makeRequest(t, 200,
		ControlSpec{Replicates: 2},
		GeneSpec{Name: "Actb", Chemistry: ChemistrySYBR},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, plates, 2)

	assert.Equal(t, 1, plates[0].Plate)
	assert.Equal(t, WellsPerPlate, plates[0].UsedCount)
	assert.Equal(t, 0, plates[0].EmptyCount())

	assert.Equal(t, 2, plates[1].Plate)
	assert.Equal(t, 16, plates[1].UsedCount)
	assert.Equal(t, "Actb", plates[1].Gene)

	// The sequence resumes, it does not restart: plate 2 begins with the
	// 193rd sample.
	assert.Equal(t, "Sample193", plates[1].Wells[0].Label)
	assert.Equal(t, "A1", plates[1].Wells[0].Coordinate())
}

func TestAllocateGenesNeverSharePlates(t *testing.T) {
	t.Parallel()

	req := makeRequest(t, 10,
		ControlSpec{NumStandards: 2, Replicates: 2},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
		GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan},
		GeneSpec{Name: "Tnf", Chemistry: ChemistrySYBR},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, plates, 3)

	geneByPlate := make(map[int]string)
	for _, p := range plates {
		prev, taken := geneByPlate[p.Plate]
		require.False(t, taken, "plate %d used by both %s and %s", p.Plate, prev, p.Gene)
		geneByPlate[p.Plate] = p.Gene
	}

	assert.Equal(t, "Gapdh", geneByPlate[1])
	assert.Equal(t, "Il6", geneByPlate[2])
	assert.Equal(t, "Tnf", geneByPlate[3])
}

func TestAllocateOverrideCollisionOverrideWins(t *testing.T) {
	t.Parallel()

	// Gene 2 requests plate 1, colliding with gene 1's default. Under
	// override-wins the override holds plate 1 and gene 1 moves forward.
	req := makeRequest(t, 4,
		ControlSpec{Replicates: 2},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
		GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan, PlateOverride: 1},
	)
	req.OverridePolicy = "override-wins"

	plates, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, plates, 2)

	byGene := platesByGene(plates)
	assert.Equal(t, []int{2}, byGene["Gapdh"])
	assert.Equal(t, []int{1}, byGene["Il6"])
}

func TestAllocateOverrideCollisionOrderWins(t *testing.T) {
	t.Parallel()

	// Same collision under order-wins: gene 1 keeps plate 1 and the
	// override gene is displaced to the next free number.
	req := makeRequest(t, 4,
		ControlSpec{Replicates: 2},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
		GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan, PlateOverride: 1},
	)
	req.OverridePolicy = "order-wins"

	plates, err := Allocate(req)
	require.NoError(t, err)
	require.Len(t, plates, 2)

	byGene := platesByGene(plates)
	assert.Equal(t, []int{1}, byGene["Gapdh"])
	assert.Equal(t, []int{2}, byGene["Il6"])
}

func TestAllocateOverrideSkipsToRequestedPlate(t *testing.T) {
	t.Parallel()

	req := makeRequest(t, 4,
		ControlSpec{Replicates: 2},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
		GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan, PlateOverride: 5},
		GeneSpec{Name: "Tnf", Chemistry: ChemistrySYBR},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)

	byGene := platesByGene(plates)
	assert.Equal(t, []int{1}, byGene["Gapdh"])
	assert.Equal(t, []int{5}, byGene["Il6"])
	// The non-override gene takes the lowest free number, not 6.
	assert.Equal(t, []int{2}, byGene["Tnf"])
}

func TestAllocateTwoOverridesCollide(t *testing.T) {
	t.Parallel()

	// Two overrides requesting plate 3: the earlier gene wins, the later
	// one is displaced upward.
	req := makeRequest(t, 4,
		ControlSpec{Replicates: 2},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR, PlateOverride: 3},
		GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan, PlateOverride: 3},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)

	byGene := platesByGene(plates)
	assert.Equal(t, []int{3}, byGene["Gapdh"])
	assert.Equal(t, []int{4}, byGene["Il6"])
}

func TestAllocateOverflowSkipsReservedOverride(t *testing.T) {
	t.Parallel()

	// Both genes carry 400 wells. Actb overflows past plate 1 while Il6
	// holds an override on plate 2, so Actb continues on plate 3; Il6 then
	// overflows from its override plate onto plate 4.
	req := makeRequest(t, 200,
		ControlSpec{Replicates: 2},
		GeneSpec{Name: "Actb", Chemistry: ChemistrySYBR},
		GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan, PlateOverride: 2},
	)

	plates, err := Allocate(req)
	require.NoError(t, err)

	byGene := platesByGene(plates)
	assert.Equal(t, []int{1, 3}, byGene["Actb"])
	assert.Equal(t, []int{2, 4}, byGene["Il6"])
}

func TestAllocateReplicatesWiderThanRow(t *testing.T) {
	t.Parallel()

	req := makeRequest(t, 2,
		ControlSpec{Replicates: 25},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
	)

	_, err := Allocate(req)
	require.ErrorIs(t, err, ErrReplicatesTooWide)
}

func TestAllocateReplicatesBelowOne(t *testing.T) {
	t.Parallel()

	req := makeRequest(t, 2,
		ControlSpec{Replicates: 0},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
	)

	_, err := Allocate(req)
	require.ErrorIs(t, err, ErrReplicatesInvalid)
}

func TestAllocateNegativeControlCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		controls ControlSpec
	}{
		{"negative standards", ControlSpec{NumStandards: -1, Replicates: 2}},
		{"negative positives", ControlSpec{NumPositives: -3, Replicates: 2}},
		{"negative blanks", ControlSpec{NumBlanks: -1, Replicates: 2}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := makeRequest(t, 2, tt.controls,
				GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR})

			_, err := Allocate(req)
			require.ErrorIs(t, err, ErrControlsInvalid)
		})
	}
}

func TestAllocateUnknownOverridePolicy(t *testing.T) {
	t.Parallel()

	req := makeRequest(t, 2,
		ControlSpec{Replicates: 2},
		GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
	)
	req.OverridePolicy = "bogus"

	_, err := Allocate(req)
	require.ErrorIs(t, err, ErrOverridePolicyInvalid)
}

func TestAllocateUsedPlusEmptyIsCapacity(t *testing.T) {
	t.Parallel()

	for _, reps := range []int{1, 2, 3, 5, 7, 24} {
		req := makeRequest(t, 37,
			ControlSpec{NumStandards: 8, NumBlanks: 1, Replicates: reps, IncludeRTNeg: true, IncludeRNANeg: true},
			GeneSpec{Name: "Gapdh", Chemistry: ChemistrySYBR},
			GeneSpec{Name: "Il6", Chemistry: ChemistryTaqMan},
		)

		plates, err := Allocate(req)
		require.NoError(t, err, "replicates=%d", reps)

		// 37 samples + 8 standards + RT- + RNA- + 1 blank = 48 labels per gene.
		wantWells := 48 * reps * 2
		total := 0
		for i := range plates {
			p := &plates[i]
			assert.Equal(t, WellsPerPlate, p.UsedCount+p.EmptyCount())
			assert.Len(t, p.Wells, p.UsedCount)
			total += p.UsedCount
		}
		assert.Equal(t, wantWells, total, "replicates=%d", reps)
	}
}

func platesByGene(plates []PlateState) map[string][]int {
	byGene := make(map[string][]int)
	for _, p := range plates {
		byGene[p.Gene] = append(byGene[p.Gene], p.Plate)
	}
	return byGene
}

func TestWellCoordinate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		row, col int
		want     string
	}{
		{0, 1, "A1"},
		{0, 24, "A24"},
		{1, 1, "B1"},
		{15, 24, "P24"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			w := Well{Row: tt.row, Column: tt.col}
			assert.Equal(t, tt.want, w.Coordinate())
		})
	}
}

func TestPlateName(t *testing.T) {
	t.Parallel()

	p := PlateState{Plate: 7}
	assert.Equal(t, "Plate 7", p.Name())
	assert.Equal(t, fmt.Sprintf("Plate %d", 7), PlateName(7))
}
