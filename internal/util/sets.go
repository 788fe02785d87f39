package util

import "slices"

// SortedUnion merges id lists into one sorted slice without duplicates.
// The result is never nil, so it serializes as [] rather than null.
func SortedUnion(lists ...[]string) []string {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]string, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}
	slices.Sort(merged)
	return slices.Compact(merged)
}

// SortedInts returns a sorted copy of values. The result is never nil.
func SortedInts(values []int) []int {
	out := make([]int, len(values))
	copy(out, values)
	slices.Sort(out)
	return out
}
