// allocator.go: assigns genes to plates and fills wells in a fixed content order.
//
// Every gene owns its plates outright. Within a gene, content is placed in a
// fixed sequence of fill steps (samples, standards, positives, negatives,
// blanks), each label occupying replicateCount horizontally adjacent wells.
// Replicate blocks never split across rows: when a row cannot hold a full
// block, its tail stays empty and the block starts the next row. When row P is
// exhausted, allocation continues on the next unused plate number for the same
// gene.
package planner

import (
	"fmt"
	"sort"
)

// Override collision policies. With overridePolicyOverrideWins, explicit plate
// overrides reserve their numbers before any default assignment, so an override
// beats an earlier gene's default plate. With overridePolicyOrderWins, genes
// claim numbers strictly in input order and a later override gene is displaced
// instead. The observed legacy behavior matches override-wins; the policy is
// kept selectable because the legacy tool never pinned it down.
const (
	overridePolicyOverrideWins = "override-wins"
	overridePolicyOrderWins    = "order-wins"
)

// fillStep is one segment of the fixed within-gene content order. The allocator
// iterates a list of these rather than a hardcoded branching sequence.
type fillStep struct {
	occupant Occupant
	labels   []string
}

// buildFillSteps expands the control configuration into the ordered fill steps
// shared by every gene: samples, standards, positives, RT- and RNA- negatives,
// then blanks. Steps with no labels are omitted.
func buildFillSteps(samples []SampleRecord, controls *ControlSpec) []fillStep {
	sampleLabels := make([]string, len(samples))
	for i := range samples {
		sampleLabels[i] = samples[i].Label
	}

	standards := make([]string, controls.NumStandards)
	for i := range standards {
		standards[i] = fmt.Sprintf("Std%d", i+1)
	}

	steps := []fillStep{
		{OccupantSample, sampleLabels},
		{OccupantStandard, standards},
	}

	if controls.NumPositives > 0 {
		positives := make([]string, controls.NumPositives)
		for i := range positives {
			positives[i] = fmt.Sprintf("Pos%d", i+1)
		}
		steps = append(steps, fillStep{OccupantPositive, positives})
	}
	if controls.IncludeRTNeg {
		steps = append(steps, fillStep{OccupantNegative, []string{"RT-"}})
	}
	if controls.IncludeRNANeg {
		steps = append(steps, fillStep{OccupantNegative, []string{"RNA-"}})
	}
	if controls.NumBlanks > 0 {
		blanks := make([]string, controls.NumBlanks)
		for i := range blanks {
			blanks[i] = "Blank"
		}
		steps = append(steps, fillStep{OccupantBlank, blanks})
	}

	out := steps[:0]
	for _, s := range steps {
		if len(s.labels) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// allocator tracks plate number assignment across one planning request. It is
// created per call and discarded afterwards.
type allocator struct {
	used     map[int]bool // plate numbers consumed by placed plates
	reserved map[int]bool // plate numbers held for overrides not yet placed
}

// nextFree returns the lowest plate number >= from that is neither used nor
// reserved.
func (a *allocator) nextFree(from int) int {
	n := from
	for a.used[n] || a.reserved[n] {
		n++
	}
	return n
}

// claim marks a plate number as consumed, clearing any reservation on it.
func (a *allocator) claim(n int) {
	a.used[n] = true
	delete(a.reserved, n)
}

// resolveOverrides reserves override-requested plate numbers in gene order.
// A later override colliding with an earlier one is displaced upward to the
// first free number. Returns the reservation per gene index.
func (a *allocator) resolveOverrides(genes []GeneSpec) map[int]int {
	reservations := make(map[int]int)
	for i := range genes {
		want := genes[i].PlateOverride
		if want < 1 {
			continue
		}
		for a.reserved[want] {
			want++
		}
		a.reserved[want] = true
		reservations[i] = want
	}
	return reservations
}

// Allocate assigns every gene to its plates and fills wells in content order.
// Plates are returned in placement order (gene input order, overflow plates
// after their predecessors).
func Allocate(req *Request) ([]PlateState, error) {
	reps := req.Controls.Replicates
	if reps < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrReplicatesInvalid, reps)
	}
	if reps > PlateCols {
		return nil, fmt.Errorf("%w: %d replicates exceed %d columns", ErrReplicatesTooWide, reps, PlateCols)
	}
	if req.Controls.NumStandards < 0 || req.Controls.NumPositives < 0 || req.Controls.NumBlanks < 0 {
		return nil, fmt.Errorf("%w: standards %d, positives %d, blanks %d", ErrControlsInvalid,
			req.Controls.NumStandards, req.Controls.NumPositives, req.Controls.NumBlanks)
	}

	policy := req.OverridePolicy
	if policy == "" {
		policy = overridePolicyOverrideWins
	}
	if policy != overridePolicyOverrideWins && policy != overridePolicyOrderWins {
		return nil, fmt.Errorf("%w: %q", ErrOverridePolicyInvalid, policy)
	}

	a := &allocator{
		used:     make(map[int]bool),
		reserved: make(map[int]bool),
	}

	var reservations map[int]int
	if policy == overridePolicyOverrideWins {
		reservations = a.resolveOverrides(req.Genes)
	}

	steps := buildFillSteps(req.Samples, &req.Controls)

	var plates []PlateState
	for i := range req.Genes {
		gene := &req.Genes[i]

		var start int
		switch {
		case policy == overridePolicyOverrideWins:
			if n, ok := reservations[i]; ok {
				start = n
			} else {
				start = a.nextFree(1)
			}
		case gene.PlateOverride >= 1:
			// order-wins: an override colliding with an already placed
			// plate is displaced upward.
			start = gene.PlateOverride
			if a.used[start] {
				start = a.nextFree(start)
			}
		default:
			start = a.nextFree(1)
		}

		plates = append(plates, a.fillGene(gene, steps, reps, start)...)
	}

	return plates, nil
}

// fillGene places one gene's full content sequence starting on plate number
// start, overflowing to further plates as needed.
func (a *allocator) fillGene(gene *GeneSpec, steps []fillStep, reps, start int) []PlateState {
	a.claim(start)
	current := &PlateState{Plate: start, Gene: gene.Name}

	var plates []PlateState
	row, col := 0, 0

	for _, step := range steps {
		for _, label := range step.labels {
			// A replicate block never splits mid-row: skip the short
			// tail and start at column 1 of the next row.
			if col+reps > PlateCols {
				row++
				col = 0
			}
			// Row P exhausted: continue the same sequence on a fresh
			// plate for this gene.
			if row >= PlateRows {
				plates = append(plates, *current)
				next := a.nextFree(current.Plate + 1)
				a.claim(next)
				current = &PlateState{Plate: next, Gene: gene.Name}
				row, col = 0, 0
			}

			for r := 0; r < reps; r++ {
				current.Wells = append(current.Wells, Well{
					Plate:     current.Plate,
					Row:       row,
					Column:    col + r + 1,
					Gene:      gene.Name,
					Occupant:  step.occupant,
					Label:     label,
					Replicate: r + 1,
				})
			}
			current.UsedCount += reps

			col += reps
			if col >= PlateCols {
				row++
				col = 0
			}
		}
	}

	plates = append(plates, *current)
	return plates
}

// sortPlatesByNumber returns the plates ordered by plate number, for summary
// emission.
func sortPlatesByNumber(plates []PlateState) []PlateState {
	sorted := make([]PlateState, len(plates))
	copy(sorted, plates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Plate < sorted[j].Plate
	})
	return sorted
}
