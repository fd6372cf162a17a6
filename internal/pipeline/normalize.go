package pipeline

import (
	"finrisk/internal"
	"finrisk/internal/util"
)

// NormalizeColumns cleans the header row in place of the raw one. Row values
// stay positional, so nothing else changes.
func NormalizeColumns(ds internal.Dataset) internal.Dataset {
	out := ds
	out.Columns = util.NormalizeHeaders(ds.Columns)
	return out
}

// DuplicateColumns lists names that occur more than once, in first-seen order.
func DuplicateColumns(columns []string) []string {
	seen := map[string]int{}
	var dups []string
	for _, c := range columns {
		seen[c]++
		if seen[c] == 2 {
			dups = append(dups, c)
		}
	}
	return dups
}

// columnIndex resolves header names to positions. The first occurrence of a
// duplicated name is the one that gets read.
func columnIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			continue
		}
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}
