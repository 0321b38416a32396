// Package datetime orders the date and date-time strings rendered by the source UI.
//
// Values that parse under one of the known layouts compare chronologically and rank
// above anything that does not parse. Two unparseable values compare as strings.
package datetime

import (
	"sort"
	"strings"
	"time"
)

var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006 03:04 PM",
	"02/01/2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
}

// Parse tries every known layout and reports whether one matched.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Compare returns -1, 0 or 1. A parseable value is always greater than an
// unparseable one, so junk text never wins Latest over a real date.
func Compare(a, b string) int {
	ta, okA := Parse(a)
	tb, okB := Parse(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Latest returns the index of the greatest value, or -1 for an empty slice.
// Ties keep the first occurrence.
func Latest(values []string) int {
	if len(values) == 0 {
		return -1
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return Compare(values[idx[i]], values[idx[j]]) > 0
	})
	return idx[0]
}
