package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/platewell/qpcr-go/internal/errors"
	"github.com/platewell/qpcr-go/internal/planner"
)

// sanitizeCSVField sanitizes CSV fields to prevent spreadsheet formula injection
func sanitizeCSVField(field string) string {
	if field == "" {
		return field
	}
	// Check if field starts with dangerous characters
	if strings.HasPrefix(field, "=") || strings.HasPrefix(field, "+") ||
		strings.HasPrefix(field, "-") || strings.HasPrefix(field, "@") {
		// Prefix with single quote to neutralize formula
		return "'" + field
	}
	return field
}

// LayoutCSV renders the layout as CSV with a UTF-8 BOM for Excel compatibility.
// Every field is sanitized against formula injection, including negative
// control labels such as "RT-".
func LayoutCSV(result *planner.Result) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	writer := csv.NewWriter(&buf)
	extraCount := len(result.SampleHeaders)

	if err := writeSanitized(writer, layoutHeaders(result.SampleHeaders)); err != nil {
		return nil, err
	}
	for i := range result.Layout {
		if err := writeSanitized(writer, layoutCells(&result.Layout[i], extraCount)); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, csvError(err)
	}
	return buf.Bytes(), nil
}

// MixCSV renders the per-gene master-mix table as CSV.
func MixCSV(result *planner.Result) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	writer := csv.NewWriter(&buf)
	if err := writeSanitized(writer, mixHeaders); err != nil {
		return nil, err
	}
	for i := range result.Mix {
		if err := writeSanitized(writer, mixCells(&result.Mix[i])); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, csvError(err)
	}
	return buf.Bytes(), nil
}

func writeSanitized(writer *csv.Writer, cells []string) error {
	row := make([]string, len(cells))
	for i, cell := range cells {
		row[i] = sanitizeCSVField(cell)
	}
	if err := writer.Write(row); err != nil {
		return csvError(err)
	}
	return nil
}

func csvError(err error) error {
	return errors.New(fmt.Errorf("failed to write CSV: %w", err)).
		Component("export").
		Category(errors.CategoryExport).
		Build()
}
