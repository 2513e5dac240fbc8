package journal

import "sort"

// Merge reconciles an already-normalized incoming batch against the existing
// ledger. It is a pure function and idempotent: merging the same batch twice
// yields the same ledger as merging it once.
//
// For keys present on both sides the incoming row wins, but annotation fields
// set on the existing row survive unless the incoming row carries its own
// non-nil value. The result is unique by natural key and sorted ascending by
// date.
func Merge(existing, incoming []Record) []Record {
	prior := make(map[Key]Record, len(existing))
	for _, r := range existing {
		prior[r.Key()] = r
	}

	resolved := make([]Record, 0, len(incoming))
	for _, r := range incoming {
		if old, ok := prior[r.Key()]; ok {
			if r.Notes == nil {
				r.Notes = old.Notes
			}
			if r.Ratio == nil {
				r.Ratio = old.Ratio
			}
		}
		resolved = append(resolved, r)
	}

	combined := make([]Record, 0, len(existing)+len(resolved))
	combined = append(combined, existing...)
	combined = append(combined, resolved...)
	merged := dedupeKeepLast(combined)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged
}
