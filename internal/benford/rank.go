package benford

import (
	"sort"
)

// Rank orders column summaries by MAD descending and truncates to topN.
// The sort is stable: summaries with equal MAD keep their input order, so
// the ranking is deterministic for a given corpus. topN values at or below
// zero fall back to DefaultTopN; fewer summaries than topN returns them
// all. The input slice is never mutated.
func Rank(summaries []ColumnSummary, topN int) []ColumnSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	ranked := make([]ColumnSummary, len(summaries))
	copy(ranked, summaries)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MAD > ranked[j].MAD
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
