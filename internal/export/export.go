// Package export renders a planning result into downloadable formats: TSV for
// clipboard paste, CSV for spreadsheet import and a multi-sheet XLSX workbook.
package export

import (
	"fmt"
	"strconv"

	"github.com/platewell/qpcr-go/internal/planner"
)

// layoutHeaders returns the column headers for layout exports. Sample extra
// headers from the request are appended after the fixed columns.
func layoutHeaders(extraHeaders []string) []string {
	headers := []string{"Plate", "Well", "Gene", "Type", "Label", "Replicate"}
	return append(headers, extraHeaders...)
}

// layoutCells flattens one layout row into string cells matching layoutHeaders.
func layoutCells(row *planner.LayoutRow, extraCount int) []string {
	cells := []string{
		row.Plate,
		row.Well,
		row.Gene,
		string(row.Type),
		row.Label,
		strconv.Itoa(row.Replicate),
	}
	for i := 0; i < extraCount; i++ {
		if i < len(row.Extras) {
			cells = append(cells, row.Extras[i])
		} else {
			cells = append(cells, "")
		}
	}
	return cells
}

// mixHeaders is the column order for master-mix exports.
var mixHeaders = []string{
	"Gene", "Chemistry", "Reactions", "Mix Factor",
	"2x Master Mix (uL)", "Water (uL)", "Probe (uL)",
	"Fwd Primer (uL)", "Rev Primer (uL)",
}

func mixCells(m *planner.MixEntry) []string {
	return []string{
		m.Gene,
		string(m.Chemistry),
		strconv.Itoa(m.PlacedReactions),
		formatVolume(m.MixFactor),
		formatVolume(m.MasterMix2xUl),
		formatVolume(m.WaterUl),
		formatVolume(m.ProbeUl),
		formatVolume(m.FwdPrimerUl),
		formatVolume(m.RevPrimerUl),
	}
}

// summaryHeaders is the column order for per-plate summary exports.
var summaryHeaders = []string{"Plate", "Gene", "Used Wells", "Empty Wells"}

func summaryCells(s *planner.PlateSummary) []string {
	return []string{
		planner.PlateName(s.Plate),
		s.Gene,
		strconv.Itoa(s.Used),
		strconv.Itoa(s.Empty),
	}
}

// formatVolume renders a microliter volume with two decimals, matching the
// precision pipettes are read at.
func formatVolume(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
