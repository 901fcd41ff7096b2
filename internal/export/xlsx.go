package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/platewell/qpcr-go/internal/errors"
	"github.com/platewell/qpcr-go/internal/planner"
)

// Workbook sheet names. Plate is the layout, MasterMix the per-gene recipe,
// Summary the per-plate well counts.
const (
	sheetPlate     = "Plate"
	sheetMasterMix = "MasterMix"
	sheetSummary   = "Summary"
)

// Workbook renders the full planning result as an XLSX file with one sheet per
// output table.
func Workbook(result *planner.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the Plate sheet so the workbook opens on it.
	if err := f.SetSheetName("Sheet1", sheetPlate); err != nil {
		return nil, xlsxError(err)
	}
	for _, name := range []string{sheetMasterMix, sheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, xlsxError(err)
		}
	}

	extraCount := len(result.SampleHeaders)
	plateRows := [][]any{toAnyRow(layoutHeaders(result.SampleHeaders))}
	for i := range result.Layout {
		plateRows = append(plateRows, layoutWorkbookRow(&result.Layout[i], extraCount))
	}
	if err := writeSheet(f, sheetPlate, plateRows); err != nil {
		return nil, err
	}

	mixRows := [][]any{toAnyRow(mixHeaders)}
	for i := range result.Mix {
		m := &result.Mix[i]
		mixRows = append(mixRows, []any{
			m.Gene, string(m.Chemistry), m.PlacedReactions, m.MixFactor,
			m.MasterMix2xUl, m.WaterUl, m.ProbeUl, m.FwdPrimerUl, m.RevPrimerUl,
		})
	}
	if err := writeSheet(f, sheetMasterMix, mixRows); err != nil {
		return nil, err
	}

	summaryRows := [][]any{toAnyRow(summaryHeaders)}
	for i := range result.Summary {
		s := &result.Summary[i]
		summaryRows = append(summaryRows, []any{
			planner.PlateName(s.Plate), s.Gene, s.Used, s.Empty,
		})
	}
	if err := writeSheet(f, sheetSummary, summaryRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, xlsxError(err)
	}
	return buf.Bytes(), nil
}

// layoutWorkbookRow keeps Replicate numeric so spreadsheet sorting works.
func layoutWorkbookRow(row *planner.LayoutRow, extraCount int) []any {
	cells := []any{row.Plate, row.Well, row.Gene, string(row.Type), row.Label, row.Replicate}
	for i := 0; i < extraCount; i++ {
		if i < len(row.Extras) {
			cells = append(cells, row.Extras[i])
		} else {
			cells = append(cells, "")
		}
	}
	return cells
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return xlsxError(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return xlsxError(err)
		}
	}
	return nil
}

func toAnyRow(cells []string) []any {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func xlsxError(err error) error {
	return errors.New(fmt.Errorf("failed to build workbook: %w", err)).
		Component("export").
		Category(errors.CategoryExport).
		Build()
}
