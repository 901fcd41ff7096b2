// summary.go: per-plate used/empty well aggregation.
package planner

// BuildSummary emits one summary row per produced plate, ordered by plate
// number. Used plus empty always equals the 384-well plate capacity.
func BuildSummary(plates []PlateState) []PlateSummary {
	sorted := sortPlatesByNumber(plates)

	summary := make([]PlateSummary, 0, len(sorted))
	for i := range sorted {
		p := &sorted[i]
		summary = append(summary, PlateSummary{
			Plate: p.Plate,
			Gene:  p.Gene,
			Used:  p.UsedCount,
			Empty: p.EmptyCount(),
		})
	}
	return summary
}
