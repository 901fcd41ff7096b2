// samples.go: normalizes raw pasted sample text into ordered sample records.
package planner

import (
	"fmt"
	"strings"
)

// splitSampleLine returns the tokens of one pasted sample line. Tabs and commas
// take priority as delimiters so intra-value spaces survive; otherwise the line
// is split on whitespace. Blank lines and #-comments yield no tokens.
func splitSampleLine(raw string) []string {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if strings.ContainsAny(line, "\t,") {
		parts := strings.FieldsFunc(line, func(r rune) bool {
			return r == '\t' || r == ','
		})
		tokens := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				tokens = append(tokens, t)
			}
		}
		return tokens
	}

	return strings.Fields(line)
}

// ParseSamples parses pasted sample text into ordered sample records plus the
// extra-column headers. The first token of each line is the sample label and
// every remaining token becomes an extra field in positional order. Duplicate
// labels keep their first occurrence. A single extra column keeps the legacy
// header name "Group"; wider inputs get positional "Extra N" headers.
func ParseSamples(text string) ([]SampleRecord, []string, error) {
	var samples []SampleRecord
	seen := make(map[string]bool)
	maxExtras := 0

	for _, line := range strings.Split(text, "\n") {
		tokens := splitSampleLine(line)
		if len(tokens) == 0 {
			continue
		}

		label := tokens[0]
		if seen[label] {
			continue
		}
		seen[label] = true

		extras := tokens[1:]
		samples = append(samples, SampleRecord{
			Label:         label,
			ExtraFields:   extras,
			OriginalIndex: len(samples),
		})
		if len(extras) > maxExtras {
			maxExtras = len(extras)
		}
	}

	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("%w: no sample lines parsed", ErrNoSamples)
	}

	return samples, extraHeaders(maxExtras), nil
}

// SynthesizeSamples builds n sequential sample records labeled Sample1..SampleN.
func SynthesizeSamples(n int) ([]SampleRecord, []string, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("%w: sample count %d", ErrNoSamples, n)
	}

	samples := make([]SampleRecord, n)
	for i := range samples {
		samples[i] = SampleRecord{
			Label:         fmt.Sprintf("Sample%d", i+1),
			OriginalIndex: i,
		}
	}
	return samples, nil, nil
}

// extraHeaders names the extra sample columns.
func extraHeaders(n int) []string {
	switch n {
	case 0:
		return nil
	case 1:
		return []string{"Group"}
	default:
		headers := make([]string, n)
		for i := range headers {
			headers[i] = fmt.Sprintf("Extra %d", i+1)
		}
		return headers
	}
}
