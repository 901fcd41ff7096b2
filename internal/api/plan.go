// plan.go: planning endpoint, request normalization and response shaping.
package api

import (
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/platewell/qpcr-go/internal/errors"
	"github.com/platewell/qpcr-go/internal/planner"
)

// initPlanRoutes registers the planning endpoints.
func (c *Controller) initPlanRoutes() {
	c.Group.POST("/plan", c.PostPlan)
}

// GeneRequest is one gene in a planning request.
type GeneRequest struct {
	Name          string `json:"name"`
	Chemistry     string `json:"chemistry"`
	PlateOverride int    `json:"plate_override,omitempty"`
}

// PlanRequest is the JSON body of the planning endpoint. Field names follow the
// legacy wire format so existing frontends keep working. Unset numeric and
// boolean fields fall back to the configured planner defaults.
type PlanRequest struct {
	NumSamples       *int     `json:"num_samples,omitempty"`
	NumStandards     *int     `json:"num_standards,omitempty"`
	NumPos           *int     `json:"num_pos,omitempty"`
	NumBlanks        *int     `json:"num_blanks,omitempty"`
	Replicates       *int     `json:"replicates,omitempty"`
	OveragePct       *float64 `json:"overage_pct,omitempty"`
	IncludeRTNeg     *bool    `json:"include_rtneg,omitempty"`
	IncludeRNANeg    *bool    `json:"include_rnaneg,omitempty"`
	UsePastedSamples bool     `json:"use_pasted_samples,omitempty"`
	PastedSamples    []string `json:"pasted_samples,omitempty"`

	Genes              []GeneRequest  `json:"genes"`
	GenePlateOverrides map[string]int `json:"gene_plate_overrides,omitempty"`
	OverridePolicy     string         `json:"override_policy,omitempty"`
}

// EffectiveInputs echoes the request back with all defaults resolved, so the
// caller can see exactly what was planned.
type EffectiveInputs struct {
	NumSamples       int            `json:"num_samples"`
	NumStandards     int            `json:"num_standards"`
	NumPos           int            `json:"num_pos"`
	NumBlanks        int            `json:"num_blanks"`
	Replicates       int            `json:"replicates"`
	OveragePct       float64        `json:"overage_pct"`
	IncludeRTNeg     bool           `json:"include_rtneg"`
	IncludeRNANeg    bool           `json:"include_rnaneg"`
	UsePastedSamples bool           `json:"use_pasted_samples"`
	Genes            []GeneRequest  `json:"genes"`
	OverridePolicy   string         `json:"override_policy"`
	Recipe           map[string]any `json:"recipe"`
}

// LayoutRowResponse is one occupied well in the response layout.
type LayoutRowResponse struct {
	Plate     string   `json:"plate"`
	Well      string   `json:"well"`
	Gene      string   `json:"gene"`
	Type      string   `json:"type"`
	Label     string   `json:"label"`
	Replicate int      `json:"replicate"`
	Extras    []string `json:"extras,omitempty"`
}

// MixRowResponse carries master-mix volumes for one gene. Field names match the
// legacy export columns.
type MixRowResponse struct {
	Gene            string  `json:"Gene"`
	Chemistry       string  `json:"Chemistry"`
	PlacedReactions int     `json:"placed_reactions"`
	MixFactor       float64 `json:"mix_factor"`
	MixEquivRxn     float64 `json:"mix_equiv_rxn"`
	MasterMix2x     float64 `json:"master_mix_2x"`
	RNAFreeH2O      float64 `json:"rna_free_h2o"`
	Probe10uM       float64 `json:"probe_10uM"`
	Fwd10uM         float64 `json:"fwd_10uM"`
	Rev10uM         float64 `json:"rev_10uM"`
}

// WellResponse is one occupied well within a plate.
type WellResponse struct {
	Well      string `json:"well"`
	Type      string `json:"type"`
	Label     string `json:"label"`
	Replicate int    `json:"replicate"`
}

// PlateResponse is one physical plate with its occupied wells.
type PlateResponse struct {
	Plate string         `json:"plate"`
	Gene  string         `json:"gene"`
	Wells []WellResponse `json:"wells"`
}

// SummaryRowResponse reports well usage for one plate.
type SummaryRowResponse struct {
	Plate string `json:"plate"`
	Gene  string `json:"gene"`
	Used  int    `json:"used"`
	Empty int    `json:"empty"`
}

// PlanResponse is the full output of the planning endpoint.
type PlanResponse struct {
	Layout        []LayoutRowResponse  `json:"layout"`
	Mix           []MixRowResponse     `json:"mix"`
	Plates        []PlateResponse      `json:"plates"`
	Summary       []SummaryRowResponse `json:"summary"`
	SampleHeaders []string             `json:"sample_headers"`
	Inputs        EffectiveInputs      `json:"inputs"`
}

// PostPlan computes a plate layout and master-mix table for the request.
// @Summary Plan qPCR plates
// @Description Computes the plate layout, per-gene master mix and per-plate summary
// @Tags plan
// @Accept json
// @Produce json
// @Success 200 {object} PlanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v2/plan [post]
func (c *Controller) PostPlan(ctx echo.Context) error {
	start := time.Now()

	var req PlanRequest
	if err := ctx.Bind(&req); err != nil {
		if c.metrics != nil {
			c.metrics.Planner.RecordError(time.Since(start))
		}
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	result, inputs, status, err := c.runPlan(&req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.Planner.RecordError(time.Since(start))
		}
		return c.HandleError(ctx, err, "Planning failed", status)
	}

	if c.metrics != nil {
		wells := 0
		for i := range result.Plates {
			wells += result.Plates[i].UsedCount
		}
		c.metrics.Planner.RecordSuccess(time.Since(start), len(result.Plates), wells)
	}

	c.logAPIRequest(ctx, slog.LevelInfo, "Plan computed",
		"genes", len(inputs.Genes),
		"plates", len(result.Plates),
		"layout_rows", len(result.Layout),
	)

	return ctx.JSON(http.StatusOK, buildPlanResponse(result, inputs))
}

// runPlan resolves defaults and runs the planner without touching the response.
// Export handlers share this path so every output format plans identically. On
// failure it returns the HTTP status the caller should answer with.
func (c *Controller) runPlan(req *PlanRequest) (*planner.Result, *EffectiveInputs, int, error) {
	plannerReq, inputs, err := c.buildPlannerRequest(req)
	if err != nil {
		return nil, nil, http.StatusBadRequest, err
	}

	recipe := &planner.Recipe{
		TotalVolumeUl: c.Settings.Recipe.TotalVolumeUl,
		MasterMix2xUl: c.Settings.Recipe.MasterMix2xUl,
		ProbeUl:       c.Settings.Recipe.ProbeUl,
		PrimerUl:      c.Settings.Recipe.PrimerUl,
	}

	result, err := planner.Plan(plannerReq, recipe)
	if err != nil {
		return nil, nil, planErrorStatus(err), err
	}
	return result, inputs, 0, nil
}

// buildPlannerRequest resolves defaults from settings and maps the wire request
// onto the planner's input types.
func (c *Controller) buildPlannerRequest(req *PlanRequest) (*planner.Request, *EffectiveInputs, error) {
	defaults := &c.Settings.Planner

	numSamples := intOr(req.NumSamples, defaults.Samples)
	numStandards := intOr(req.NumStandards, defaults.Standards)
	numPos := intOr(req.NumPos, defaults.Positives)
	numBlanks := intOr(req.NumBlanks, defaults.Blanks)
	replicates := intOr(req.Replicates, defaults.Replicates)
	overagePct := floatOr(req.OveragePct, defaults.OveragePct)
	includeRTNeg := boolOr(req.IncludeRTNeg, defaults.IncludeRTNeg)
	includeRNANeg := boolOr(req.IncludeRNANeg, defaults.IncludeRNANeg)
	policy := req.OverridePolicy
	if policy == "" {
		policy = defaults.OverridePolicy
	}

	var samples []planner.SampleRecord
	var headers []string
	var err error
	if req.UsePastedSamples {
		samples, headers, err = planner.ParseSamples(strings.Join(req.PastedSamples, "\n"))
	} else {
		samples, headers, err = planner.SynthesizeSamples(numSamples)
	}
	if err != nil {
		return nil, nil, err
	}

	genes := make([]planner.GeneSpec, 0, len(req.Genes))
	for _, g := range req.Genes {
		chem, err := planner.ParseChemistry(g.Chemistry)
		if err != nil {
			return nil, nil, err
		}
		override := g.PlateOverride
		if override == 0 {
			override = req.GenePlateOverrides[strings.TrimSpace(g.Name)]
		}
		genes = append(genes, planner.GeneSpec{
			Name:          g.Name,
			Chemistry:     chem,
			PlateOverride: override,
		})
	}

	plannerReq := &planner.Request{
		Samples:       samples,
		SampleHeaders: headers,
		Genes:         genes,
		Controls: planner.ControlSpec{
			NumStandards:  numStandards,
			NumPositives:  numPos,
			NumBlanks:     numBlanks,
			Replicates:    replicates,
			IncludeRTNeg:  includeRTNeg,
			IncludeRNANeg: includeRNANeg,
		},
		OveragePct:     overagePct,
		OverridePolicy: policy,
	}

	inputs := &EffectiveInputs{
		NumSamples:       len(samples),
		NumStandards:     numStandards,
		NumPos:           numPos,
		NumBlanks:        numBlanks,
		Replicates:       replicates,
		OveragePct:       overagePct,
		IncludeRTNeg:     includeRTNeg,
		IncludeRNANeg:    includeRNANeg,
		UsePastedSamples: req.UsePastedSamples,
		Genes:            effectiveGenes(genes),
		OverridePolicy:   policy,
		Recipe: map[string]any{
			"total_volume_ul":  c.Settings.Recipe.TotalVolumeUl,
			"master_mix_2x_ul": c.Settings.Recipe.MasterMix2xUl,
			"probe_ul":         c.Settings.Recipe.ProbeUl,
			"primer_ul":        c.Settings.Recipe.PrimerUl,
		},
	}
	return plannerReq, inputs, nil
}

func effectiveGenes(genes []planner.GeneSpec) []GeneRequest {
	out := make([]GeneRequest, len(genes))
	for i, g := range genes {
		out[i] = GeneRequest{
			Name:          g.Name,
			Chemistry:     string(g.Chemistry),
			PlateOverride: g.PlateOverride,
		}
	}
	return out
}

// planErrorStatus maps planner failures onto HTTP status codes. Bad input is
// the client's fault; a broken recipe is server configuration.
func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, planner.ErrRecipeInvalid):
		return http.StatusInternalServerError
	case errors.Is(err, planner.ErrNoSamples),
		errors.Is(err, planner.ErrNoGenes),
		errors.Is(err, planner.ErrDuplicateGene),
		errors.Is(err, planner.ErrUnknownChemistry),
		errors.Is(err, planner.ErrReplicatesInvalid),
		errors.Is(err, planner.ErrReplicatesTooWide),
		errors.Is(err, planner.ErrControlsInvalid),
		errors.Is(err, planner.ErrOverridePolicyInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func buildPlanResponse(result *planner.Result, inputs *EffectiveInputs) *PlanResponse {
	resp := &PlanResponse{
		Layout:        make([]LayoutRowResponse, 0, len(result.Layout)),
		Mix:           make([]MixRowResponse, 0, len(result.Mix)),
		Plates:        make([]PlateResponse, 0, len(result.Plates)),
		Summary:       make([]SummaryRowResponse, 0, len(result.Summary)),
		SampleHeaders: result.SampleHeaders,
		Inputs:        *inputs,
	}
	if resp.SampleHeaders == nil {
		resp.SampleHeaders = []string{}
	}

	for i := range result.Layout {
		r := &result.Layout[i]
		resp.Layout = append(resp.Layout, LayoutRowResponse{
			Plate:     r.Plate,
			Well:      r.Well,
			Gene:      r.Gene,
			Type:      string(r.Type),
			Label:     r.Label,
			Replicate: r.Replicate,
			Extras:    r.Extras,
		})
	}

	for i := range result.Mix {
		m := &result.Mix[i]
		resp.Mix = append(resp.Mix, MixRowResponse{
			Gene:            m.Gene,
			Chemistry:       string(m.Chemistry),
			PlacedReactions: m.PlacedReactions,
			MixFactor:       m.MixFactor,
			MixEquivRxn:     m.MixEquivRxn,
			MasterMix2x:     m.MasterMix2xUl,
			RNAFreeH2O:      m.WaterUl,
			Probe10uM:       m.ProbeUl,
			Fwd10uM:         m.FwdPrimerUl,
			Rev10uM:         m.RevPrimerUl,
		})
	}

	for i := range result.Plates {
		p := &result.Plates[i]
		wells := make([]WellResponse, 0, len(p.Wells))
		for j := range p.Wells {
			w := &p.Wells[j]
			wells = append(wells, WellResponse{
				Well:      w.Coordinate(),
				Type:      string(w.Occupant),
				Label:     w.Label,
				Replicate: w.Replicate,
			})
		}
		resp.Plates = append(resp.Plates, PlateResponse{
			Plate: p.Name(),
			Gene:  p.Gene,
			Wells: wells,
		})
	}

	for i := range result.Summary {
		s := &result.Summary[i]
		resp.Summary = append(resp.Summary, SummaryRowResponse{
			Plate: planner.PlateName(s.Plate),
			Gene:  s.Gene,
			Used:  s.Used,
			Empty: s.Empty,
		})
	}

	return resp
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func floatOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}
