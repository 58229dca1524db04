package processor

import (
	"fmt"
	"sort"

	"github.com/wgomg/vocabula/internal/counter"
)

// Jaccard is |A∩B| / |A∪B| over the key sets of a and b. Two empty maps
// have similarity 0.
func Jaccard(a, b *counter.Freq) float64 {
	if a.Len() == 0 && b.Len() == 0 {
		return 0.0
	}

	intersection := 0
	for _, k := range b.Keys() {
		if a.Has(k) {
			intersection++
		}
	}

	// union = |A| + |B| - intersection
	union := a.Len() + b.Len() - intersection

	return float64(intersection) / float64(union)
}

// overlapLines reports the pairwise vocabulary overlap of the groups, in
// name order.
func overlapLines(groups map[string]*counter.Freq) []string {
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)

	var lines []string
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]
			lines = append(lines, fmt.Sprintf("%s ~ %s: jaccard=%.4f", a, b, Jaccard(groups[a], groups[b])))
		}
	}
	return lines
}
