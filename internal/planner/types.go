// Package planner contains the plate allocation engine and mix volume calculator
// for 384-well qPCR assay plates. Planning is a pure function of its input: one
// request produces one self-contained result with no shared mutable state.
package planner

import (
	"fmt"
	"strings"

	"github.com/platewell/qpcr-go/internal/errors"
)

// Plate geometry for a 384-well plate, rows A-P and columns 1-24.
const (
	PlateRows     = 16
	PlateCols     = 24
	WellsPerPlate = PlateRows * PlateCols
)

// rowLetters maps a zero-based row index to its plate row letter.
const rowLetters = "ABCDEFGHIJKLMNOP"

// Chemistry is the detection method of a gene, governing probe inclusion in the mix.
type Chemistry string

const (
	ChemistrySYBR   Chemistry = "SYBR"
	ChemistryTaqMan Chemistry = "TaqMan"
)

// ParseChemistry normalizes a chemistry name, accepting any letter case.
func ParseChemistry(s string) (Chemistry, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sybr":
		return ChemistrySYBR, nil
	case "taqman":
		return ChemistryTaqMan, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChemistry, s)
	}
}

// Occupant is the content type of a placed well.
type Occupant string

const (
	OccupantSample   Occupant = "Sample"
	OccupantStandard Occupant = "Standard"
	OccupantPositive Occupant = "Positive"
	OccupantNegative Occupant = "Negative"
	OccupantBlank    Occupant = "Blank"
	OccupantEmpty    Occupant = "Empty"
)

// Sentinel errors for rejected planning requests. Handlers match these with
// errors.Is to map failures onto HTTP status codes.
var (
	// ErrNoSamples: neither pasted text nor a positive count yielded a sample.
	ErrNoSamples = errors.NewStd("no samples resolvable from input")
	// ErrNoGenes: no gene with a non-empty name was supplied.
	ErrNoGenes = errors.NewStd("at least one gene is required")
	// ErrDuplicateGene: two genes share a name after trimming.
	ErrDuplicateGene = errors.NewStd("duplicate gene name")
	// ErrUnknownChemistry: chemistry is neither SYBR nor TaqMan.
	ErrUnknownChemistry = errors.NewStd("unknown chemistry")
	// ErrReplicatesInvalid: replicate count below 1.
	ErrReplicatesInvalid = errors.NewStd("replicate count must be at least 1")
	// ErrReplicatesTooWide: a replicate block cannot fit in one 24-column row.
	ErrReplicatesTooWide = errors.NewStd("replicate block wider than one plate row")
	// ErrControlsInvalid: a control count below zero.
	ErrControlsInvalid = errors.NewStd("control counts must not be negative")
	// ErrOverridePolicyInvalid: override policy is neither override-wins nor order-wins.
	ErrOverridePolicyInvalid = errors.NewStd("unknown plate override policy")
	// ErrRecipeInvalid: reagent shares exceed the configured total mix volume.
	ErrRecipeInvalid = errors.NewStd("recipe reagents exceed total reaction volume")
)

// SampleRecord is one biological sample to assay. Extra fields beyond the label
// are carried opaquely through allocation into the output layout.
type SampleRecord struct {
	Label         string
	ExtraFields   []string
	OriginalIndex int
}

// GeneSpec is a gene/target to run across all samples. PlateOverride, when
// positive, is the user-requested starting plate number for the gene.
type GeneSpec struct {
	Name          string
	Chemistry     Chemistry
	PlateOverride int
}

// ControlSpec is the run-wide control configuration.
type ControlSpec struct {
	NumStandards  int
	NumPositives  int
	NumBlanks     int
	Replicates    int
	IncludeRTNeg  bool
	IncludeRNANeg bool
}

// Well is one occupied physical position on a plate. Row and Column are
// zero-based row index and one-based column number.
type Well struct {
	Plate     int
	Row       int
	Column    int
	Gene      string
	Occupant  Occupant
	Label     string
	Replicate int
}

// Coordinate returns the well position in plate notation, e.g. "A1" or "P24".
func (w *Well) Coordinate() string {
	return fmt.Sprintf("%c%d", rowLetters[w.Row], w.Column)
}

// PlateState is one physical plate, scoped to exactly one gene. Wells holds the
// occupied wells in placement order; unoccupied positions stay empty.
type PlateState struct {
	Plate     int
	Gene      string
	Wells     []Well
	UsedCount int
}

// EmptyCount returns the number of unoccupied wells on the plate.
func (p *PlateState) EmptyCount() int {
	return WellsPerPlate - p.UsedCount
}

// Name returns the display name of the plate, e.g. "Plate 3".
func (p *PlateState) Name() string {
	return PlateName(p.Plate)
}

// PlateName formats a plate number as a display name.
func PlateName(n int) string {
	return fmt.Sprintf("Plate %d", n)
}

// PlateSummary reports used and empty well counts for one plate.
type PlateSummary struct {
	Plate int
	Gene  string
	Used  int
	Empty int
}

// Recipe holds the per-reaction reagent volumes in microliters. The values are
// injected configuration, never invented by the calculator.
type Recipe struct {
	TotalVolumeUl float64
	MasterMix2xUl float64
	ProbeUl       float64
	PrimerUl      float64
}

// MixEntry is the aggregated reagent volumes for one gene's master-mix batch.
// All volumes are in microliters. ProbeUl is zero for SYBR chemistry.
type MixEntry struct {
	Gene            string
	Chemistry       Chemistry
	PlacedReactions int
	MixFactor       float64
	MixEquivRxn     float64
	MasterMix2xUl   float64
	WaterUl         float64
	ProbeUl         float64
	FwdPrimerUl     float64
	RevPrimerUl     float64
}

// LayoutRow is one occupied well in the output layout. Extras is padded to the
// request's sample header count so every row has the same column shape.
type LayoutRow struct {
	Plate     string
	Well      string
	Gene      string
	Type      Occupant
	Label     string
	Replicate int
	Extras    []string
}

// Request is one complete planning request. Samples and Genes are immutable
// inputs owned by the caller.
type Request struct {
	Samples       []SampleRecord
	SampleHeaders []string
	Genes         []GeneSpec
	Controls      ControlSpec
	OveragePct    float64
	// OverridePolicy selects the plate override collision tie-break:
	// "override-wins" (default) or "order-wins".
	OverridePolicy string
}

// Result is the complete output of one planning request: layout rows in
// placement order, one mix entry per gene, plate states and per-plate summary.
type Result struct {
	Layout        []LayoutRow
	Mix           []MixEntry
	Plates        []PlateState
	Summary       []PlateSummary
	SampleHeaders []string
}
