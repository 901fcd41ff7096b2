// planner.go: request validation and orchestration of the full planning run.
package planner

import (
	"fmt"
	"strings"

	"github.com/platewell/qpcr-go/internal/errors"
)

// Plan runs one complete planning request: validate, allocate plates, compute
// mix volumes, build the summary and assemble layout rows. It is deterministic
// and side-effect free; identical input always yields identical output.
func Plan(req *Request, recipe *Recipe) (*Result, error) {
	genes, err := normalizeGenes(req.Genes)
	if err != nil {
		return nil, planError(err, errors.CategoryValidation)
	}

	if len(req.Samples) == 0 {
		return nil, planError(fmt.Errorf("%w: request contains no samples", ErrNoSamples), errors.CategoryValidation)
	}

	run := Request{
		Samples:        req.Samples,
		SampleHeaders:  req.SampleHeaders,
		Genes:          genes,
		Controls:       req.Controls,
		OveragePct:     req.OveragePct,
		OverridePolicy: req.OverridePolicy,
	}

	plates, err := Allocate(&run)
	if err != nil {
		return nil, planError(err, errors.CategoryAllocation)
	}

	placed := placedReactions(plates)
	mix, err := ComputeMix(run.Genes, placed, run.OveragePct, recipe)
	if err != nil {
		return nil, planError(err, errors.CategoryConfiguration)
	}

	return &Result{
		Layout:        buildLayout(plates, run.Samples, run.SampleHeaders),
		Mix:           mix,
		Plates:        plates,
		Summary:       BuildSummary(plates),
		SampleHeaders: run.SampleHeaders,
	}, nil
}

// normalizeGenes trims gene names, drops nameless entries and rejects
// duplicates. At least one named gene must remain.
func normalizeGenes(genes []GeneSpec) ([]GeneSpec, error) {
	out := make([]GeneSpec, 0, len(genes))
	seen := make(map[string]bool)

	for i := range genes {
		name := strings.TrimSpace(genes[i].Name)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGene, name)
		}
		seen[name] = true

		switch genes[i].Chemistry {
		case ChemistrySYBR, ChemistryTaqMan:
		default:
			return nil, fmt.Errorf("%w: gene %q has chemistry %q", ErrUnknownChemistry, name, genes[i].Chemistry)
		}

		out = append(out, GeneSpec{
			Name:          name,
			Chemistry:     genes[i].Chemistry,
			PlateOverride: genes[i].PlateOverride,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: gene list is empty after trimming", ErrNoGenes)
	}
	return out, nil
}

// placedReactions counts the occupied wells per gene across all its plates.
func placedReactions(plates []PlateState) map[string]int {
	placed := make(map[string]int)
	for i := range plates {
		placed[plates[i].Gene] += plates[i].UsedCount
	}
	return placed
}

// buildLayout flattens the plates into output rows in placement order. Sample
// rows carry the sample's extra fields; every row's extras are padded to the
// header count so rows align positionally.
func buildLayout(plates []PlateState, samples []SampleRecord, headers []string) []LayoutRow {
	extrasByLabel := make(map[string][]string, len(samples))
	for i := range samples {
		extrasByLabel[samples[i].Label] = samples[i].ExtraFields
	}

	total := 0
	for i := range plates {
		total += len(plates[i].Wells)
	}

	rows := make([]LayoutRow, 0, total)
	for i := range plates {
		p := &plates[i]
		for j := range p.Wells {
			w := &p.Wells[j]

			var extras []string
			if w.Occupant == OccupantSample {
				extras = extrasByLabel[w.Label]
			}

			rows = append(rows, LayoutRow{
				Plate:     p.Name(),
				Well:      w.Coordinate(),
				Gene:      w.Gene,
				Type:      w.Occupant,
				Label:     w.Label,
				Replicate: w.Replicate,
				Extras:    padExtras(extras, len(headers)),
			})
		}
	}
	return rows
}

// padExtras pads or trims an extras list to exactly n values.
func padExtras(extras []string, n int) []string {
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, extras)
	return out
}

// planError tags a planning failure with its category unless it is already an
// enhanced error.
func planError(err error, category errors.ErrorCategory) error {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return err
	}
	return errors.New(err).
		Component("planner").
		Category(category).
		Build()
}
