package sitepulse

import "sort"

// Aggregate orders a set of outcomes into a [BatchResult].
//
// Outcomes are sorted by Index ascending with a stable sort, so the same
// unordered set always yields the same BatchResult regardless of the order
// probes completed in. Aggregate is pure: the input slice is not modified
// and nothing is dropped.
func Aggregate(outcomes []Outcome) BatchResult {
	sorted := make([]Outcome, len(outcomes))
	copy(sorted, outcomes)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	return BatchResult{Outcomes: sorted}
}
