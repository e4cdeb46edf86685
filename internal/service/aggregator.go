package service

import "github.com/timmy/tabextract/internal/domain"

// Combine merges per-unit results in the given order. Rows are
// concatenated; canonical and display field lists are first-seen unions.
func Combine(results []domain.ExtractionResult) *domain.CombinedResult {
	combined := &domain.CombinedResult{Rows: []domain.Record{}}

	seenFields := make(map[string]struct{})
	seenDisplay := make(map[string]struct{})
	for _, r := range results {
		combined.Rows = append(combined.Rows, r.Rows...)
		combined.Fields = appendUnique(combined.Fields, seenFields, r.Fields)
		combined.DisplayFields = appendUnique(combined.DisplayFields, seenDisplay, r.DisplayFields)
	}

	combined.Metadata = domain.ResultMetadata{
		MultiUnit:       len(results) > 1,
		TotalUnits:      len(results),
		CombinedRecords: len(combined.Rows),
	}
	return combined
}

func appendUnique(dst []string, seen map[string]struct{}, names []string) []string {
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		dst = append(dst, n)
	}
	return dst
}
