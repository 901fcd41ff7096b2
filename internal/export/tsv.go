package export

import (
	"strings"

	"github.com/platewell/qpcr-go/internal/planner"
)

// LayoutTSV renders the layout as tab-separated text with a header line,
// suitable for pasting straight into a spreadsheet.
func LayoutTSV(result *planner.Result) string {
	var b strings.Builder
	extraCount := len(result.SampleHeaders)

	b.WriteString(strings.Join(layoutHeaders(result.SampleHeaders), "\t"))
	b.WriteByte('\n')
	for i := range result.Layout {
		b.WriteString(strings.Join(layoutCells(&result.Layout[i], extraCount), "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}
