package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/platewell/qpcr-go/internal/planner"
)

func sampleResult(t *testing.T) *planner.Result {
	t.Helper()
	samples, headers, err := planner.ParseSamples("S1\tMale\nS2\tFemale")
	require.NoError(t, err)

	result, err := planner.Plan(&planner.Request{
		Samples:       samples,
		SampleHeaders: headers,
		Genes: []planner.GeneSpec{
			{Name: "Gapdh", Chemistry: planner.ChemistrySYBR},
			{Name: "Il6", Chemistry: planner.ChemistryTaqMan},
		},
		Controls: planner.ControlSpec{
			NumStandards:  2,
			NumBlanks:     1,
			Replicates:    2,
			IncludeRTNeg:  true,
			IncludeRNANeg: true,
		},
		OveragePct: 10,
	}, &planner.Recipe{TotalVolumeUl: 13.0, MasterMix2xUl: 7.5, ProbeUl: 0.3, PrimerUl: 0.3})
	require.NoError(t, err)
	return result
}

func TestLayoutTSV(t *testing.T) {
	t.Parallel()

	result := sampleResult(t)
	tsv := LayoutTSV(result)

	lines := strings.Split(strings.TrimRight(tsv, "\n"), "\n")
	require.Len(t, lines, len(result.Layout)+1)
	assert.Equal(t, "Plate\tWell\tGene\tType\tLabel\tReplicate\tGroup", lines[0])
	assert.Equal(t, "Plate 1\tA1\tGapdh\tSample\tS1\t1\tMale", lines[1])

	// Every data line has the same number of columns as the header.
	want := strings.Count(lines[0], "\t")
	for _, line := range lines[1:] {
		assert.Equal(t, want, strings.Count(line, "\t"))
	}
}

func TestLayoutCSV(t *testing.T) {
	t.Parallel()

	result := sampleResult(t)
	data, err := LayoutCSV(result)
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte("\uFEFF")), "must carry a UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\uFEFF")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(result.Layout)+1)
	assert.Equal(t, []string{"Plate", "Well", "Gene", "Type", "Label", "Replicate", "Group"}, records[0])
}

func TestLayoutCSVNeutralizesFormulas(t *testing.T) {
	t.Parallel()

	// A hostile sample label pasted from a spreadsheet must not survive as a
	// live formula. The RT- label starts with a letter and stays untouched.
	samples, headers, err := planner.ParseSamples("=HYPERLINK(\"x\")\nS2")
	require.NoError(t, err)

	result, err := planner.Plan(&planner.Request{
		Samples:       samples,
		SampleHeaders: headers,
		Genes:         []planner.GeneSpec{{Name: "Gapdh", Chemistry: planner.ChemistrySYBR}},
		Controls:      planner.ControlSpec{Replicates: 1, IncludeRTNeg: true},
	}, &planner.Recipe{TotalVolumeUl: 13.0, MasterMix2xUl: 7.5, ProbeUl: 0.3, PrimerUl: 0.3})
	require.NoError(t, err)

	data, err := LayoutCSV(result)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\uFEFF")))).ReadAll()
	require.NoError(t, err)

	labels := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		labels = append(labels, rec[4])
	}
	assert.Contains(t, labels, "'=HYPERLINK(\"x\")")
	assert.Contains(t, labels, "RT-")
	assert.NotContains(t, labels, "=HYPERLINK(\"x\")")
}

func TestSanitizeCSVField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Gapdh", "Gapdh"},
		{"=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"+1", "'+1"},
		{"-cmd", "'-cmd"},
		{"@host", "'@host"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeCSVField(tt.in))
	}
}

func TestMixCSV(t *testing.T) {
	t.Parallel()

	result := sampleResult(t)
	data, err := MixCSV(result)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\uFEFF")))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Gapdh", records[1][0])
	assert.Equal(t, "SYBR", records[1][1])
	assert.Equal(t, "0.00", records[1][6], "SYBR probe volume must be zero")
	assert.Equal(t, "Il6", records[2][0])
}

func TestWorkbook(t *testing.T) {
	t.Parallel()

	result := sampleResult(t)
	data, err := Workbook(result)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Plate", "MasterMix", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Plate")
	require.NoError(t, err)
	require.Len(t, rows, len(result.Layout)+1)
	assert.Equal(t, []string{"Plate", "Well", "Gene", "Type", "Label", "Replicate", "Group"}, rows[0])

	mixRows, err := f.GetRows("MasterMix")
	require.NoError(t, err)
	require.Len(t, mixRows, 3)

	summaryRows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summaryRows, len(result.Summary)+1)
	assert.Equal(t, "Plate 1", summaryRows[1][0])
}
