// Package plan implements the one-shot planning command.
package plan

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/platewell/qpcr-go/internal/conf"
	"github.com/platewell/qpcr-go/internal/export"
	"github.com/platewell/qpcr-go/internal/planner"
)

// options holds the per-invocation planning flags.
type options struct {
	samplesFile string
	numSamples  int
	genes       []string
	standards   int
	positives   int
	blanks      int
	replicates  int
	overagePct  float64
	noRTNeg     bool
	noRNANeg    bool
	format      string
	output      string
}

// Command creates the plan command computing a layout from the command line.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a plate plan from the command line",
		Long:  "Plan plates for the given genes and samples, printing the result or writing an export file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(settings, opts)
		},
	}

	setupFlags(cmd, opts)
	return cmd
}

// setupFlags configures flags specific to the plan command. Defaults come from
// the loaded configuration so the CLI and the API plan identically.
func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.samplesFile, "samples-file", "", "Path to a sample list file, one sample per line (\"-\" for stdin)")
	cmd.Flags().IntVar(&opts.numSamples, "samples", viper.GetInt("planner.samples"), "Number of synthetic samples when no sample file is given")
	cmd.Flags().StringSliceVar(&opts.genes, "gene", nil, "Gene as Name:Chemistry[:Plate], e.g. \"Gapdh:SYBR\" or \"Il6:TaqMan:3\" (repeatable)")
	cmd.Flags().IntVar(&opts.standards, "standards", viper.GetInt("planner.standards"), "Number of standards per gene")
	cmd.Flags().IntVar(&opts.positives, "positives", viper.GetInt("planner.positives"), "Number of positive controls per gene")
	cmd.Flags().IntVar(&opts.blanks, "blanks", viper.GetInt("planner.blanks"), "Number of blanks per gene")
	cmd.Flags().IntVar(&opts.replicates, "replicates", viper.GetInt("planner.replicates"), "Replicates per label")
	cmd.Flags().Float64Var(&opts.overagePct, "overage", viper.GetFloat64("planner.overagepct"), "Pipetting overage percentage for mix volumes")
	cmd.Flags().BoolVar(&opts.noRTNeg, "no-rtneg", !viper.GetBool("planner.includertneg"), "Skip the RT- negative control")
	cmd.Flags().BoolVar(&opts.noRNANeg, "no-rnaneg", !viper.GetBool("planner.includernaneg"), "Skip the RNA- negative control")
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format: table, tsv, csv or xlsx")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (default stdout, required for xlsx)")
}

func runPlan(settings *conf.Settings, opts *options) error {
	req, err := buildRequest(settings, opts)
	if err != nil {
		return err
	}

	recipe := &planner.Recipe{
		TotalVolumeUl: settings.Recipe.TotalVolumeUl,
		MasterMix2xUl: settings.Recipe.MasterMix2xUl,
		ProbeUl:       settings.Recipe.ProbeUl,
		PrimerUl:      settings.Recipe.PrimerUl,
	}

	result, err := planner.Plan(req, recipe)
	if err != nil {
		return err
	}

	return writeResult(result, opts)
}

// buildRequest maps the command line flags onto a planning request.
func buildRequest(settings *conf.Settings, opts *options) (*planner.Request, error) {
	if len(opts.genes) == 0 {
		return nil, fmt.Errorf("at least one --gene is required")
	}

	genes := make([]planner.GeneSpec, 0, len(opts.genes))
	for _, raw := range opts.genes {
		gene, err := parseGeneFlag(raw)
		if err != nil {
			return nil, err
		}
		genes = append(genes, gene)
	}

	var samples []planner.SampleRecord
	var headers []string
	var err error
	if opts.samplesFile != "" {
		text, readErr := readSamplesFile(opts.samplesFile)
		if readErr != nil {
			return nil, readErr
		}
		samples, headers, err = planner.ParseSamples(text)
	} else {
		samples, headers, err = planner.SynthesizeSamples(opts.numSamples)
	}
	if err != nil {
		return nil, err
	}

	return &planner.Request{
		Samples:       samples,
		SampleHeaders: headers,
		Genes:         genes,
		Controls: planner.ControlSpec{
			NumStandards:  opts.standards,
			NumPositives:  opts.positives,
			NumBlanks:     opts.blanks,
			Replicates:    opts.replicates,
			IncludeRTNeg:  !opts.noRTNeg,
			IncludeRNANeg: !opts.noRNANeg,
		},
		OveragePct:     opts.overagePct,
		OverridePolicy: settings.Planner.OverridePolicy,
	}, nil
}

// parseGeneFlag parses a Name:Chemistry[:Plate] gene argument.
func parseGeneFlag(raw string) (planner.GeneSpec, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return planner.GeneSpec{}, fmt.Errorf("invalid gene %q, expected Name:Chemistry[:Plate]", raw)
	}

	chem, err := planner.ParseChemistry(parts[1])
	if err != nil {
		return planner.GeneSpec{}, err
	}

	gene := planner.GeneSpec{Name: strings.TrimSpace(parts[0]), Chemistry: chem}
	if len(parts) == 3 {
		plate, err := strconv.Atoi(parts[2])
		if err != nil || plate < 1 {
			return planner.GeneSpec{}, fmt.Errorf("invalid plate number in gene %q", raw)
		}
		gene.PlateOverride = plate
	}
	return gene, nil
}

func readSamplesFile(path string) (string, error) {
	if path == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("failed to read samples from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read samples file: %w", err)
	}
	return string(data), nil
}

func writeResult(result *planner.Result, opts *options) error {
	switch opts.format {
	case "table":
		return writeTable(os.Stdout, result)
	case "tsv":
		return writeOutput(opts.output, []byte(export.LayoutTSV(result)))
	case "csv":
		data, err := export.LayoutCSV(result)
		if err != nil {
			return err
		}
		return writeOutput(opts.output, data)
	case "xlsx":
		if opts.output == "" {
			return fmt.Errorf("--output is required for xlsx format")
		}
		data, err := export.Workbook(result)
		if err != nil {
			return err
		}
		return writeOutput(opts.output, data)
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// writeTable prints the plate summary and master-mix table in aligned columns.
func writeTable(out *os.File, result *planner.Result) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "PLATE\tGENE\tUSED\tEMPTY")
	for i := range result.Summary {
		s := &result.Summary[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", planner.PlateName(s.Plate), s.Gene, s.Used, s.Empty)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "GENE\tCHEM\tRXNS\t2X MIX (uL)\tWATER (uL)\tPROBE (uL)\tFWD (uL)\tREV (uL)")
	for i := range result.Mix {
		m := &result.Mix[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			m.Gene, m.Chemistry, m.PlacedReactions,
			m.MasterMix2xUl, m.WaterUl, m.ProbeUl, m.FwdPrimerUl, m.RevPrimerUl)
	}

	return w.Flush()
}
